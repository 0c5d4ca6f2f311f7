package server

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Log in · Procrastinators</title></head>
<body>
<h1>Log in</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="{{.Action}}">
  <input type="hidden" name="next" value="{{.Next}}">
  <label>Username <input type="text" name="username" value="{{.Username}}" autocomplete="username" required></label>
  <label>Password <input type="password" name="password" autocomplete="current-password" required></label>
  <button type="submit">Log in</button>
</form>
</body>
</html>
`))

var abTestTemplate = template.Must(template.New("abtest").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Procrastinators</title></head>
<body>
<form id="abtest" method="post" action="/abtest/click">
  <input type="hidden" name="variant" value="{{.Variant}}">
  <button type="submit" data-variant="{{.Variant}}">{{.Label}}</button>
</form>
<p id="totals"></p>
<script>
document.getElementById("abtest").addEventListener("submit", async (e) => {
  e.preventDefault();
  const res = await fetch(e.target.action, {method: "POST", body: new URLSearchParams(new FormData(e.target))});
  const data = await res.json();
  document.getElementById("totals").textContent = "A: " + data.click_count_a + " / B: " + data.click_count_b;
});
</script>
</body>
</html>
`))

type loginView struct {
	Action   string
	Next     string
	Username string
	Error    string
}

type abTestView struct {
	Variant string
	Label   string
}

// render writes tmpl executed with data as an HTML response.
func render(c *fiber.Ctx, status int, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
