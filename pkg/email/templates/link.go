package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// LinkEmail is the HTML body of the link mail: a short greeting and a
// single call-to-action pointing at link. Unsafe URLs are neutralised by
// templ's URL sanitiser.
func LinkEmail(link string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		href := templ.EscapeString(string(templ.URL(link)))
		text := templ.EscapeString(link)

		_, err := io.WriteString(w, `<!DOCTYPE html>`+
			`<html><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"></head>`+
			`<body style="margin:0;padding:24px;font-family:Arial,Helvetica,sans-serif;background:#f5f5f5;color:#222">`+
			`<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr><td align="center">`+
			`<table role="presentation" width="560" cellpadding="24" cellspacing="0" style="background:#ffffff;border-radius:6px">`+
			`<tr><td>`+
			`<p style="font-size:16px;line-height:24px;margin:0 0 16px">Hello,</p>`+
			`<p style="font-size:16px;line-height:24px;margin:0 0 24px">Please follow the link below to continue.</p>`+
			`<p style="margin:0 0 24px"><a href="`+href+`" style="display:inline-block;padding:12px 24px;background:#2563eb;color:#ffffff;text-decoration:none;border-radius:4px">Open link</a></p>`+
			`<p style="font-size:13px;line-height:20px;color:#666;margin:0">If the button does not work, copy this address into your browser:<br>`+text+`</p>`+
			`</td></tr></table>`+
			`</td></tr></table>`+
			`</body></html>`)
		return err
	})
}

// LinkText is the plain-text alternative of LinkEmail.
func LinkText(link string) string {
	return "Hello,\n\nPlease follow the link below to continue:\n\n" + link + "\n"
}
