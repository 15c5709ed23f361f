package enums

// NoticeLevel classifies a user-visible notification.
type NoticeLevel string

const (
	NoticeLevelSuccess NoticeLevel = "success"
	NoticeLevelError   NoticeLevel = "error"
	NoticeLevelInfo    NoticeLevel = "info"
	NoticeLevelDismiss NoticeLevel = "dismiss"
)

// String implements fmt.Stringer.
func (n NoticeLevel) String() string {
	return string(n)
}
