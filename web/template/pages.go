//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package template has the few server-rendered HTML pages.
package template

import (
	"context"
	"github.com/a-h/templ"
	"io"
)

// Section is one heading and its paragraphs.
type Section struct {
	Heading    string
	Paragraphs []string
}

// Document is a page of plain legal text.
type Document struct {
	Title    string
	Updated  string
	Sections []Section
}

// Page wraps body in the site's layout. Every string is HTML-escaped.
func Page(deployment, versionName, versionRef string, doc Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="ko"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(doc.Title)
		p.raw(` | Community</title><style>`)
		p.raw(`body{font-family:sans-serif;max-width:48rem;margin:2rem auto;padding:0 1rem;line-height:1.6}`)
		p.raw(`footer{margin-top:3rem;color:#777;font-size:.8rem}`)
		p.raw(`</style></head><body>`)
		if deployment != "production" {
			p.raw(`<p class="deployment">`)
			p.text(deployment)
			p.raw(`</p>`)
		}
		p.raw(`<h1>`)
		p.text(doc.Title)
		p.raw(`</h1>`)
		if doc.Updated != "" {
			p.raw(`<p><small>Last updated `)
			p.text(doc.Updated)
			p.raw(`</small></p>`)
		}
		for _, s := range doc.Sections {
			p.raw(`<h2>`)
			p.text(s.Heading)
			p.raw(`</h2>`)
			for _, para := range s.Paragraphs {
				p.raw(`<p>`)
				p.text(para)
				p.raw(`</p>`)
			}
		}
		p.raw(`<footer>Community `)
		p.text(versionName)
		p.raw(` (`)
		p.text(versionRef)
		p.raw(`)</footer></body></html>`)
		return p.err
	})
}

// printer keeps the first write error, so Page can write without checking
// each one.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}
