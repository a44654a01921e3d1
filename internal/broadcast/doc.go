// Package broadcast mirrors confirmation-window progress onto MQTT so
// on-site panels can display the countdown and the final resolution.
// It is a best-effort surface: a broken broker never blocks the window.
package broadcast
