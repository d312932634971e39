// Package views holds the HTML components of the upload UI.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	appI18n "github.com/examforge/examforge/internal/i18n"
	"github.com/examforge/examforge/internal/model"
)

// IndexPage is the upload form. The form posts to /generate and the inline
// script swaps the JSON response for download links.
func IndexPage(setsGenerated, defaultColumns int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		basePath := model.BasePathFromContext(ctx)
		t := func(id string) string { return templ.EscapeString(appI18n.T(ctx, id)) }

		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 40rem; margin: 2rem auto; padding: 0 1rem; }
label { display: block; margin-top: 1rem; font-weight: bold; }
input, select { margin-top: 0.25rem; }
button { margin-top: 1.5rem; padding: 0.5rem 1.5rem; }
.error { color: #a00; margin-top: 1rem; }
.links a { display: block; margin-top: 0.5rem; }
.muted { color: #666; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>%s</h1>
<p>%s</p>
`, t("AppTitle"), t("UploadHeading"), t("Tagline")); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, `<form id="generate-form" method="post" action="%s/generate" enctype="multipart/form-data">
<label>%s <input type="file" name="excelFile" accept=".xlsx,.xlsm" required></label>
<label>%s <input type="number" name="numQuestions" min="1" required></label>
<label>%s <input type="number" name="numVersions" min="1" required></label>
<label>%s <input type="text" name="className"></label>
<label>%s <input type="text" name="subject"></label>
<label>%s <select name="columns">%s</select></label>
<button type="submit">%s</button>
</form>
<div id="result" class="links"></div>
<p class="muted">%s</p>
`,
			templ.EscapeString(basePath),
			t("FieldFile"), t("FieldQuestions"), t("FieldVersions"),
			t("FieldClassName"), t("FieldSubject"), t("FieldColumns"),
			columnOptions(defaultColumns),
			t("Generate"),
			templ.EscapeString(appI18n.Tp(ctx, "SetsGenerated", setsGenerated)),
		); err != nil {
			return err
		}

		_, err := fmt.Fprintf(w, `<script>
document.getElementById("generate-form").addEventListener("submit", async (e) => {
	e.preventDefault();
	const result = document.getElementById("result");
	result.textContent = "...";
	const resp = await fetch(e.target.action, { method: "POST", body: new FormData(e.target) });
	const data = await resp.json();
	if (!resp.ok) {
		result.innerHTML = '<p class="error"></p>';
		result.firstChild.textContent = data.error;
		return;
	}
	result.innerHTML = "";
	for (const [href, label] of [[data.plain_archive, %q], [data.keyed_archive, %q]]) {
		const a = document.createElement("a");
		a.href = href;
		a.textContent = label;
		result.appendChild(a);
	}
});
</script>
</body>
</html>
`, appI18n.T(ctx, "DownloadPlain"), appI18n.T(ctx, "DownloadKeyed"))
		return err
	})
}

func columnOptions(defaultColumns int) string {
	out := ""
	for _, n := range []int{2, 1} {
		selected := ""
		if n == defaultColumns {
			selected = ` selected`
		}
		out += fmt.Sprintf(`<option value="%d"%s>%d</option>`, n, selected, n)
	}
	return out
}
