package router

import (
	"github.com/safenetai/escalation/internal/domain/escalation"
)

// Channel is the client-side delivery identity a notification lands on:
// a channel id the app registers plus its sound policy.
type Channel struct {
	// ID is the notification-channel identifier on the client.
	ID string
	// Sound is the sound resource the channel plays.
	Sound string
}

// The three delivery channels. Every notification maps to exactly one.
var (
	// ChannelUrgent plays the alarm sound and bypasses quiet settings.
	ChannelUrgent = Channel{ID: "urgent_security_channel_v5", Sound: "urgent_alarm"}
	// ChannelMedium is for elevated but non-emergency notices.
	ChannelMedium = Channel{ID: "medium_security_channel_v5", Sound: "default"}
	// ChannelNormal is the default channel.
	ChannelNormal = Channel{ID: "normal_security_channel_v5", Sound: "default"}
)

// ClassifyChannel maps (requestType, priority) onto a delivery channel.
// Panic alerts are always urgent; high priority is treated as urgent too.
func ClassifyChannel(requestType escalation.RequestType, priority escalation.Priority) Channel {
	isUrgent := requestType == escalation.RequestTypePanicAlert ||
		priority == escalation.PriorityUrgent ||
		priority == escalation.PriorityHigh

	switch {
	case isUrgent:
		return ChannelUrgent
	case priority == escalation.PriorityMedium:
		return ChannelMedium
	default:
		return ChannelNormal
	}
}
