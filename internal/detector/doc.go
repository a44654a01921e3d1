// Package detector implements the press-burst trigger state machine: a
// configured number of presses, each within a sliding threshold of the
// previous, emits one candidate emergency event. The detector goes dormant
// while the candidate's confirmation window is outstanding and for a
// cooldown period after a commit.
package detector
