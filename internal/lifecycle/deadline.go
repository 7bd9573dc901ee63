package lifecycle

import (
	"fmt"
	"time"

	"studyflow/internal/models"
)

// DeadlineLabel is the human-readable distance to a due date.
type DeadlineLabel struct {
	DaysLeft int    `json:"daysLeft"`
	Text     string `json:"text"`
	Urgent   bool   `json:"urgent"`
}

// DaysUntilDue counts calendar days from now's date to due. Negative when overdue.
func DaysUntilDue(due models.Date, now time.Time) int {
	today := models.DateOf(now)
	return int(due.Sub(today.Time).Hours() / 24)
}

// Deadline returns nil when the task has no due date. Anything due within
// three days, or overdue, is urgent.
func Deadline(due *models.Date, now time.Time) *DeadlineLabel {
	if due == nil {
		return nil
	}
	diff := DaysUntilDue(*due, now)
	label := &DeadlineLabel{DaysLeft: diff, Urgent: diff <= 3}
	switch {
	case diff < 0:
		label.Text = fmt.Sprintf("Просрочено на %d дн.", -diff)
	case diff == 0:
		label.Text = "Сегодня!"
	case diff == 1:
		label.Text = "Завтра"
	default:
		label.Text = fmt.Sprintf("Через %d дн.", diff)
	}
	return label
}
