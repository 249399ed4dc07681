package record

import (
	"net/url"
	"strings"
	"time"
)

// The form labels are the canonical stored values; the log is used by
// a Japanese sales team.
var BusinessTypes = []string{
	"飲食店",
	"ホスト",
	"キャバクラ",
	"コンカフェ",
	"BAR",
	"スナック",
	"その他（男性業態）",
	"その他（女性業態）",
	"その他",
}

var FollowerRanges = []string{"〜100", "〜500", "〜1000", "1001〜", "その他"}

// requiredDomain must appear in the account link's host.
const requiredDomain = "instagram.com"

// Record is one logged outbound DM. Records are immutable once
// written; nothing in the app updates or deletes them.
type Record struct {
	ID            int64
	WorkerName    string
	AccountLink   string
	BusinessType  string
	FollowerRange string

	HasChampagne      bool
	HasChampagneTower bool

	SentAt time.Time
	Date   string // YYYY-MM-DD under UTC+9
	Month  string // Date truncated to YYYY-MM

	CreatedAt time.Time
}

// FieldErrors maps a form field to its user-facing message. Keys:
// "accountLink", "businessType", "followerRange".
type FieldErrors map[string]string

const (
	MsgLinkRequired  = "アカウントリンクを入力してください"
	MsgLinkMalformed = "正しいURL形式で入力してください"
	MsgLinkDomain    = "instagram.comを含むURLを入力してください"
	MsgBusinessType  = "業態を選択してください"
	MsgFollowerRange = "フォロワー数を選択してください"
)

// ValidateAccountLink returns "" for a valid link or the message for
// the first failed check: empty input, malformed URL, wrong domain.
func ValidateAccountLink(link string) string {
	if link == "" {
		return MsgLinkRequired
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return MsgLinkMalformed
	}
	if !strings.Contains(u.Hostname(), requiredDomain) {
		return MsgLinkDomain
	}
	return ""
}

// Validate checks each field independently and returns nil when the
// candidate is submittable.
func (r Record) Validate() FieldErrors {
	errs := FieldErrors{}
	if msg := ValidateAccountLink(r.AccountLink); msg != "" {
		errs["accountLink"] = msg
	}
	if !contains(BusinessTypes, r.BusinessType) {
		errs["businessType"] = MsgBusinessType
	}
	if !contains(FollowerRanges, r.FollowerRange) {
		errs["followerRange"] = MsgFollowerRange
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
