package router

import (
	"fmt"
	"strings"

	"github.com/safenetai/escalation/internal/domain/escalation"
	"github.com/safenetai/escalation/internal/domain/notification"
)

// Fixed title templates. Bodies are built per request type below; the whole
// mapping is a pure function of (requestType, priority, subject).
const (
	panicTitle        = "PANIC ALERT TRIGGERED"
	sensorTitle       = "SENSOR ALARM TRIGGERED"
	requestTitle      = "New Security Request"
	defaultMsgTitle   = "New Message"
	defaultMsgBody    = "You have a new notification."
	defaultNoticeBody = "You have a new notice from authority."
)

// BuildAlertPayload renders the provider payload for an alert record.
func BuildAlertPayload(record *escalation.AlertRecord) notification.Payload {
	channel := ClassifyChannel(record.RequestType, record.Priority)
	subject := record.Subject.Normalize()

	var title, body string

	switch record.RequestType {
	case escalation.RequestTypePanicAlert:
		title = panicTitle
		body = fmt.Sprintf(
			"Emergency! %s at Flat %s%s activated the panic button. Contact: %s. Please check immediately.",
			subject.ResidentName, subject.FlatNumber, locationSuffix(subject), subject.Phone)
	case escalation.RequestTypeSensorAlert:
		title = sensorTitle
		body = fmt.Sprintf(
			"Emergency! A smoke/gas sensor reported an alarm at Flat %s%s. Resident: %s. Contact: %s. Please check immediately.",
			subject.FlatNumber, locationSuffix(subject), subject.ResidentName, subject.Phone)
	default:
		title = requestTitle
		body = fmt.Sprintf("A new %s request was created for Flat %s.",
			strings.ReplaceAll(string(record.RequestType), "_", " "), subject.FlatNumber)
	}

	return notification.Payload{
		Title:     title,
		Body:      body,
		Type:      string(record.RequestType),
		Priority:  string(record.Priority),
		ChannelID: channel.ID,
		Sound:     channel.Sound,
		Data: map[string]string{
			"requestId":      record.ID,
			"residentId":     subject.ResidentID,
			"residentName":   subject.ResidentName,
			"flatNumber":     subject.FlatNumber,
			"buildingNumber": subject.BuildingNumber,
			"block":          subject.Block,
			"phone":          subject.Phone,
		},
	}
}

// BuildNotificationPayload renders the payload for a direct notification
// record, with the stock fallbacks for empty display fields.
func BuildNotificationPayload(record *notification.InboxRecord) notification.Payload {
	title := record.Title
	if title == "" {
		title = defaultMsgTitle
	}

	body := record.Message
	if body == "" {
		body = defaultMsgBody
	}

	priority := record.Priority
	if priority == "" {
		priority = string(escalation.PriorityNormal)
	}

	channel := ClassifyChannel(escalation.RequestType(record.Type), escalation.Priority(priority))

	return notification.Payload{
		Title:     title,
		Body:      body,
		Type:      record.Type,
		Priority:  priority,
		ChannelID: channel.ID,
		Sound:     channel.Sound,
		Data: map[string]string{
			"route": record.Route,
		},
	}
}

// BuildAnnouncementPayload renders the payload for an authority announcement.
func BuildAnnouncementPayload(a notification.Announcement) notification.Payload {
	category := a.Category
	if category == "" {
		category = "General"
	}

	title := a.Title
	if title == "" {
		title = "New Announcement"
	}

	body := a.Description
	if body == "" {
		body = defaultNoticeBody
	}

	priority := strings.ToLower(a.Priority)
	if priority == "" {
		priority = string(escalation.PriorityNormal)
	}

	channel := ClassifyChannel(escalation.RequestTypeGeneral, escalation.Priority(priority))

	return notification.Payload{
		Title:     fmt.Sprintf("[%s] %s", category, title),
		Body:      body,
		Type:      "announcement",
		Priority:  priority,
		ChannelID: channel.ID,
		Sound:     channel.Sound,
		Data: map[string]string{
			"category": category,
		},
	}
}

// locationSuffix appends building and block qualifiers when they resolved to
// something other than the placeholder.
func locationSuffix(subject escalation.SubjectContext) string {
	var b strings.Builder

	if subject.BuildingNumber != escalation.PlaceholderUnknown {
		fmt.Fprintf(&b, " (Bldg %s)", subject.BuildingNumber)
	}

	if subject.Block != escalation.PlaceholderUnknown {
		fmt.Fprintf(&b, " (Blk %s)", subject.Block)
	}

	return b.String()
}
