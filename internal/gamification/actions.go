// Package gamification defines the canonical point-earning actions and the
// label aliases that resolve to them. The community UI is bilingual, so the
// same action arrives under Hebrew and English labels; everything downstream
// (rules, ledger rows, guards) is keyed by the canonical action only.
package gamification

import "strings"

// Action identifies one canonical point-earning action.
type Action string

const (
	ActionDailyLogin    Action = "daily_login"
	ActionCreatePost    Action = "create_post"
	ActionLikePost      Action = "like_post"
	ActionCommentPost   Action = "comment_post"
	ActionEventRSVP     Action = "event_rsvp"
	ActionUpdateProfile Action = "update_profile"
	ActionReadAnnounce  Action = "read_announcement"
)

// GuardKind describes which duplicate-award guard applies to an action.
type GuardKind int

const (
	// GuardNone covers one-shot actions whose callers invoke the pipeline
	// once per distinct entity (e.g. creating a post).
	GuardNone GuardKind = iota
	// GuardDaily allows at most one award per user per calendar day.
	GuardDaily
	// GuardPerEntity allows at most one award per user per related entity,
	// permanently. Unliking and re-liking the same post never re-awards.
	GuardPerEntity
)

// aliases maps lowercased UI labels to canonical actions. Both language
// variants of a label must collapse to the same action so the idempotency
// guard sees them as one.
var aliases = map[string]Action{
	"daily_login":       ActionDailyLogin,
	"daily login":       ActionDailyLogin,
	"כניסה יומית":       ActionDailyLogin,
	"התחברות יומית":     ActionDailyLogin,
	"create_post":       ActionCreatePost,
	"new post":          ActionCreatePost,
	"פרסום פוסט":        ActionCreatePost,
	"like_post":         ActionLikePost,
	"לייק לפוסט":        ActionLikePost,
	"comment_post":      ActionCommentPost,
	"תגובה לפוסט":       ActionCommentPost,
	"event_rsvp":        ActionEventRSVP,
	"אישור הגעה לאירוע": ActionEventRSVP,
	"update_profile":    ActionUpdateProfile,
	"עדכון פרופיל":      ActionUpdateProfile,
	"read_announcement": ActionReadAnnounce,
	"קריאת הודעה":       ActionReadAnnounce,
}

// guards maps each canonical action to its duplicate-award guard.
var guards = map[Action]GuardKind{
	ActionDailyLogin:    GuardDaily,
	ActionCreatePost:    GuardNone,
	ActionLikePost:      GuardPerEntity,
	ActionCommentPost:   GuardPerEntity,
	ActionEventRSVP:     GuardPerEntity,
	ActionUpdateProfile: GuardDaily,
	ActionReadAnnounce:  GuardPerEntity,
}

// Resolve maps a UI label to its canonical action. Matching is
// case-insensitive and ignores surrounding whitespace. Unknown labels
// return false; the caller decides whether to fall back to matching the
// raw label against stored rules.
func Resolve(label string) (Action, bool) {
	action, ok := aliases[strings.ToLower(strings.TrimSpace(label))]
	return action, ok
}

// Guard returns the duplicate-award guard for the action. Unknown actions
// get GuardNone.
func (a Action) Guard() GuardKind {
	return guards[a]
}

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}

// Matches reports whether label refers to this action, either through the
// alias table or by direct case-insensitive comparison.
func (a Action) Matches(label string) bool {
	if resolved, ok := Resolve(label); ok {
		return resolved == a
	}

	return strings.EqualFold(string(a), strings.TrimSpace(label))
}
