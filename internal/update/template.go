package update

import (
	"html/template"
	"io"
)

var updateTmpl = template.Must(template.New("swup").Parse(updateHTML))

func renderUpdatePage(w io.Writer, version string) {
	updateTmpl.Execute(w, struct{ Version string }{version})
}

const updateHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Weather Clock Update</title>
<style>
body { font-family: monospace; max-width: 520px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
button { margin-top: 1em; padding: 8px 24px; }
#log { white-space: pre-wrap; background: #f4f4f4; padding: 8px; margin-top: 1em; min-height: 4em; }
</style>
</head>
<body>
<h1>Weather Clock Update</h1>
<p>Current firmware: <b>v{{.Version}}</b></p>
<p>Select the firmware files, then Upload. Files are verified before any
live file is replaced; a failed verification leaves the clock unchanged.</p>
<input type="file" id="files" multiple>
<br>
<button id="upload">Upload &amp; Apply</button>
<button id="continue">Skip &amp; Restart</button>
<div id="log"></div>
<script>
const log = (m) => { document.getElementById("log").textContent += m + "\n"; };

async function digest(buf) {
	const h = await crypto.subtle.digest("SHA-256", buf);
	return Array.from(new Uint8Array(h)).map(b => b.toString(16).padStart(2, "0")).join("");
}

document.getElementById("upload").onclick = async () => {
	const files = document.getElementById("files").files;
	if (!files.length) { log("no files selected"); return; }
	const sums = {};
	for (const f of files) {
		const buf = await f.arrayBuffer();
		sums[f.name] = await digest(buf);
		const r = await fetch("/upload?filename=" + encodeURIComponent(f.name), { method: "POST", body: buf });
		log(f.name + ": " + await r.text());
		if (!r.ok) return;
	}
	let r = await fetch("/checksums", { method: "POST", body: JSON.stringify(sums) });
	log(await r.text());
	if (!r.ok) return;
	r = await fetch("/finalize", { method: "POST" });
	log(await r.text());
};

document.getElementById("continue").onclick = async () => {
	const r = await fetch("/continue", { method: "POST" });
	log(await r.text());
};
</script>
</body>
</html>
`
