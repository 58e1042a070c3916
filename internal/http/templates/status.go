package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// StatusPage renders the HTML document shown for a recognised status code.
func StatusPage(data StatusPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		label := templ.EscapeString(data.StatusLabel)
		src := templ.EscapeString(data.ImageURL)

		_, err := io.WriteString(w, "<!DOCTYPE html>\n<html>\n"+
			"    <head>\n"+
			"        <meta charset=\"utf-8\">\n"+
			"        <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n"+
			"        <title>"+label+"</title>\n"+
			"    </head>\n"+
			"    <body>\n"+
			"        <h1>"+label+"</h1>\n"+
			"        <img src=\""+src+"\">\n"+
			"    </body>\n"+
			"</html>")
		return err
	})
}
