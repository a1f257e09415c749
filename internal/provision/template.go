package provision

import (
	"html/template"
	"io"
)

var formTmpl = template.Must(template.New("form").Parse(formHTML))
var configuredTmpl = template.Must(template.New("configured").Parse(configuredHTML))
var errorTmpl = template.Must(template.New("error").Parse(errorHTML))

func renderForm(w io.Writer) {
	formTmpl.Execute(w, nil)
}

func renderConfigured(w io.Writer, ssid string) {
	configuredTmpl.Execute(w, struct{ SSID string }{ssid})
}

func renderError(w io.Writer, err error) {
	errorTmpl.Execute(w, struct{ Error string }{err.Error()})
}

const formHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Weather Clock Setup</title>
<style>
body { font-family: monospace; max-width: 480px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
label { display: block; margin-top: 1em; }
input, select { width: 100%; padding: 6px; margin-top: 4px; box-sizing: border-box; }
button { margin-top: 1.5em; padding: 8px 24px; }
.hint { color: #888; font-size: 0.85em; }
</style>
</head>
<body>
<h1>Weather Clock Setup</h1>
<p>Enter your WiFi network and location to finish setup. The clock restarts
after saving.</p>
<form action="/configure" method="post">
<label>WiFi network (SSID)
<input name="ssid" required>
</label>
<label>WiFi password
<input name="password" type="password" required>
</label>
<label>ZIP code
<input name="zip" pattern="[0-9]{5}" maxlength="5" required>
<span class="hint">5-digit US ZIP, used to look up your forecast location</span>
</label>
<label>Timezone
<select name="timezone">
<option value="eastern">Eastern</option>
<option value="central">Central</option>
<option value="mountain">Mountain</option>
<option value="pacific">Pacific</option>
<option value="alaska">Alaska</option>
<option value="hawaii">Hawaii</option>
<option value="manual">Manual offset</option>
</select>
</label>
<label>Manual UTC offset (hours)
<input name="manual_offset" placeholder="-5">
<span class="hint">only used when timezone is Manual</span>
</label>
<label><input type="checkbox" name="use_dst" value="1" checked style="width:auto"> Observe US daylight saving time</label>
<button type="submit">Save &amp; Restart</button>
</form>
</body>
</html>
`

const configuredHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Weather Clock Setup</title>
</head>
<body style="font-family: monospace; max-width: 480px; margin: 2em auto;">
<h1>Saved</h1>
<p>Settings saved. The clock is restarting and will join <b>{{.SSID}}</b>.</p>
<p>You can close this page.</p>
</body>
</html>
`

const errorHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Weather Clock Setup</title>
</head>
<body style="font-family: monospace; max-width: 480px; margin: 2em auto;">
<h1>Invalid settings</h1>
<p>{{.Error}}</p>
<p><a href="/">Go back and try again.</a></p>
</body>
</html>
`
