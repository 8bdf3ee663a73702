package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

const baseHTML = `{{define "base"}}<html>
  <body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
    <div style="max-width: 600px; margin: auto; background: white; padding: 30px; border-radius: 8px;">
      <h2 style="color: #2c3e50;">{{.Title}}</h2>
      <p style="color: #333;">{{template "content" .}}</p>
      <hr>
      <small style="color: #999;">Ez egy automatikus üzenet a Bérletkezelő Rendszertől.</small>
    </div>
  </body>
</html>{{end}}
{{define "event"}}Esemény: {{.Name}}<br>Időpont: {{.When}}{{end}}
{{define "pass"}}Bérlet típusa: {{.Type}}<br>Érvényesség: {{.Start}} - {{.End}}<br>Felhasználás: {{.Used}}/{{.Total}}{{if .Comment}}<br>Megjegyzés: {{.Comment}}{{end}}{{end}}`

var contentHTML = map[model.NotificationKind]string{
	model.KindPassCreated: `{{template "pass" .Pass}}`,

	model.KindPassDeleted: `Törölt bérlet: {{.Pass.Type}}<br>{{.Pass.Start}} - {{.Pass.End}}<br>Felhasználva: {{.Pass.Used}} alkalom`,

	model.KindPassUsed: `Kedves {{.Username}},<br>
{{if .Event}}Lezárult az alábbi esemény, és egy alkalom levonásra került a bérletedből.<br>{{template "event" .Event}}<br><br>{{else}}Felhasználtál egy alkalmat a(z) {{.Pass.Type}} bérletedből.<br>{{end}}
Hátralévő alkalmak: {{.Pass.Remaining}}.<br><br>{{template "pass" .Pass}}`,

	model.KindPassRequestAdmin: `Új bérlet igénylés érkezett.<br><br>
Felhasználó: {{.Username}}<br>Email: {{.Email}}<br>Igényelt bérlet: {{.RequestType}}<br>Igénylés ideje: {{.RequestedAt}}`,

	model.KindEventSignupUser: `Kedves {{.Username}},<br><br>
{{if .FromWaitlist}}Felszabadult egy hely a várólistán szereplő eseményen, így automatikusan átkerültél a résztvevők közé.<br>{{else}}Sikeresen jelentkeztél a következő eseményre:<br>{{end}}{{template "event" .Event}}`,

	model.KindEventSignupAdmin: `Kedves {{.Username}},<br><br>
Az admin regisztrált a következő eseményre:<br>{{template "event" .Event}}`,

	model.KindEventUnregisterUser: `Kedves {{.Username}},<br><br>
Sikeresen leiratkoztál a következő eseményről:<br>{{template "event" .Event}}<br><br>
{{if .UsedPass}}A lemondás {{if .Late}}48 órán belül{{else}}48 órán kívül{{end}} történt, ezért {{if .DeductionKept}}az alkalom levonva marad a bérletedből.{{else}}az alkalmat visszaadtuk a bérletedhez.{{end}}{{else}}A lemondáshoz nem használtál bérletet, így nem történt levonás.{{end}}`,

	model.KindEventUnregisterAdm: `Kedves {{.Username}},<br><br>
Az admin törölte a jelentkezésed a következő eseményről:<br>{{template "event" .Event}}`,

	model.KindEventReminder: `1 nap múlva kezdődik az esemény amire jelentkeztél.<br><br>{{template "event" .Event}}`,

	model.KindEventThankYou: `Kedves {{.Username}},<br><br>
Köszönjük, hogy részt vettél az eseményen!<br>{{template "event" .Event}}`,
}

var subjects = map[model.NotificationKind]string{
	model.KindPassCreated:         "Új bérlet létrehozva",
	model.KindPassDeleted:         "Bérlet törölve",
	model.KindPassUsed:            "Bérlet használat",
	model.KindPassRequestAdmin:    "Új bérlet igénylés",
	model.KindEventSignupUser:     "Esemény jelentkezés",
	model.KindEventSignupAdmin:    "Esemény jelentkezés",
	model.KindEventUnregisterUser: "Esemény leiratkozás",
	model.KindEventUnregisterAdm:  "Esemény leiratkozás",
	model.KindEventReminder:       "Esemény emlékeztető",
	model.KindEventThankYou:       "Köszönjük a részvételt",
}

type eventView struct {
	Name string
	When string
}

type passView struct {
	Type      string
	Start     string
	End       string
	Used      int
	Total     int
	Remaining int
	Comment   string
}

type mailData struct {
	Title    string
	Username string
	Email    string
	Event    *eventView
	Pass     *passView

	FromWaitlist  bool
	UsedPass      bool
	Late          bool
	DeductionKept bool

	RequestType string
	RequestedAt string
}

// templates holds one parsed tree per kind, each a clone of the base layout
// with its own "content" block.
var templates = mustParse()

func mustParse() map[model.NotificationKind]*template.Template {
	base := template.Must(template.New("mail").Parse(baseHTML))
	out := make(map[model.NotificationKind]*template.Template, len(contentHTML))
	for kind, content := range contentHTML {
		t := template.Must(base.Clone())
		out[kind] = template.Must(t.Parse(`{{define "content"}}` + content + `{{end}}`))
	}
	return out
}

func render(kind model.NotificationKind, data mailData) (subject, body string, err error) {
	t, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("no template for %q", kind)
	}
	data.Title = subjects[kind]
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}
	return data.Title, buf.String(), nil
}
