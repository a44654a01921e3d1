package router

import (
	"github.com/safenetai/escalation/internal/domain/notification"
)

// Topic expressions per role. The provider evaluates these against each
// device's topic subscriptions, so one push call covers the whole audience.
// The resident expression also matches the legacy "user" tag still present
// on older installs.
const (
	residentExpression  = "'resident' in topics || 'user' in topics"
	workerExpression    = "'worker' in topics"
	securityExpression  = "'security' in topics"
	authorityExpression = "'authority' in topics"

	// everyoneExpression unions the three primary roles.
	everyoneExpression = "'resident' in topics || 'worker' in topics || 'authority' in topics"

	// alertAudienceExpression is the fixed audience of panic and sensor
	// alerts: authorities and security guards, simultaneously.
	alertAudienceExpression = "'authority' in topics || 'security' in topics"
)

// topicExpressions is the role -> boolean-expression table for broadcasts.
var topicExpressions = map[notification.Role]string{
	notification.RoleResident:  residentExpression,
	notification.RoleWorker:    workerExpression,
	notification.RoleSecurity:  securityExpression,
	notification.RoleAuthority: authorityExpression,
	notification.RoleEveryone:  everyoneExpression,
}

// TopicExpression resolves the topic expression for a role broadcast.
func TopicExpression(role notification.Role) (string, bool) {
	expression, ok := topicExpressions[role]

	return expression, ok
}

// DefaultCategoryOrder is the priority order of recipient categories for
// direct addressing: first category with a token wins, later categories are
// ignored even when they also hold one.
var DefaultCategoryOrder = []notification.Category{
	notification.CategoryResidents,
	notification.CategoryWorkers,
	notification.CategoryAuthorities,
}
