package absence

import (
	"fmt"
	"time"
)

// maxRangeDays は 1 件の申請が対象にできる最大日数です。両端を含みます。
const maxRangeDays = 365

// DateRange は日単位・両端含みの休暇期間を表します。時刻要素は持ちません。
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange は開始日と終了日を検証して DateRange を生成します。
// 日付は UTC の日単位に正規化されます。
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, ErrInvalidDateRange
	}

	s := normalizeDate(start)
	e := normalizeDate(end)
	if e.Before(s) {
		return DateRange{}, ErrInvalidDateRange
	}

	r := DateRange{start: s, end: e}
	if r.Days() > maxRangeDays {
		return DateRange{}, ErrRangeTooLong
	}

	return r, nil
}

// dateRangeFromStored は永続化済みの日付から DateRange を復元します。検証は行いません。
func dateRangeFromStored(start, end time.Time) DateRange {
	return DateRange{start: normalizeDate(start), end: normalizeDate(end)}
}

// Start は開始日を返します。
func (r DateRange) Start() time.Time {
	return r.start
}

// End は終了日を返します。
func (r DateRange) End() time.Time {
	return r.end
}

// Days は期間の日数を返します。両端を含みます。
func (r DateRange) Days() int {
	return int(r.end.Sub(r.start)/(24*time.Hour)) + 1
}

// Overlaps は他の期間と 1 日でも重なる場合に true を返します。
// 重なりの判定は start <= other.end かつ other.start <= end です。
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.start.After(other.end) && !other.start.After(r.end)
}

// IsZero は未初期化の期間かどうかを返します。
func (r DateRange) IsZero() bool {
	return r.start.IsZero() && r.end.IsZero()
}

// String は "YYYY-MM-DD/YYYY-MM-DD" 形式の表現を返します。
func (r DateRange) String() string {
	return fmt.Sprintf("%s/%s", r.start.Format("2006-01-02"), r.end.Format("2006-01-02"))
}

func normalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
