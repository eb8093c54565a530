package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ReminderData is the view model of a payment reminder e-mail.
type ReminderData struct {
	Name     string
	Title    string
	Amount   decimal.Decimal
	Category string
	DueDate  time.Time
	// DaysUntilDue is nil for manually triggered sends.
	DaysUntilDue *int
}

var reminderTmpl = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h2>Payment reminder</h2>
  <p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
  <p>Your payment <strong>{{.Title}}</strong> of <strong>{{.Amount}}</strong> is {{.When}}.</p>
  <table cellpadding="4">
    <tr><td>Category</td><td>{{.Category}}</td></tr>
    <tr><td>Due date</td><td>{{.Due}}</td></tr>
  </table>
  <p>Mark it as paid in MoneyWise to stop these reminders.</p>
</body>
</html>
`))

// RenderReminder returns the subject and HTML body for a reminder e-mail.
func RenderReminder(d ReminderData) (subject, html string, err error) {
	p := message.NewPrinter(language.English)
	amount := p.Sprintf("%.2f", d.Amount.InexactFloat64())
	when := whenText(d.DaysUntilDue)

	view := struct {
		Name, Title, Amount, Category, Due, When string
	}{
		Name:     d.Name,
		Title:    d.Title,
		Amount:   amount,
		Category: d.Category,
		Due:      d.DueDate.Format("Mon, 02 Jan 2006"),
		When:     when,
	}

	var buf bytes.Buffer
	if err := reminderTmpl.Execute(&buf, view); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Reminder: %s is %s", d.Title, when), buf.String(), nil
}

func whenText(days *int) string {
	if days == nil {
		return "coming up"
	}
	switch *days {
	case 0:
		return "due today"
	case 1:
		return "due tomorrow"
	default:
		return fmt.Sprintf("due in %d days", *days)
	}
}
