package pipeline

import (
	"context"
	"slices"

	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/render"
)

// renderFormat encodes doc in one format. svg and png honor opts.Page.
func renderFormat(ctx context.Context, doc *deck.Document, opts Options, format string) ([][]byte, error) {
	ropts := opts.renderOptions()
	switch format {
	case render.FormatPDF:
		data, err := render.PDF(ctx, doc, ropts...)
		if err != nil {
			return nil, err
		}
		return [][]byte{data}, nil
	case render.FormatJSON:
		data, err := render.JSON(doc, ropts...)
		if err != nil {
			return nil, err
		}
		return [][]byte{data}, nil
	case render.FormatSVG, render.FormatPNG:
		sub, err := selectPage(doc, opts.Page)
		if err != nil {
			return nil, err
		}
		if format == render.FormatSVG {
			return render.SVG(sub, ropts...)
		}
		return render.PNG(sub, ropts...)
	}
	return nil, ValidateFormat(format)
}

// selectPage narrows doc to the page of slide n (1-based). Zero keeps all pages.
func selectPage(doc *deck.Document, n int) (*deck.Document, error) {
	if n == 0 {
		return doc, nil
	}
	i := slices.IndexFunc(doc.Pages, func(p *deck.Page) bool { return p.Index == n-1 })
	if i < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "page %d was not rendered", n)
	}
	return &deck.Document{
		Width:  doc.Width,
		Height: doc.Height,
		Pages:  doc.Pages[i : i+1],
		Fonts:  doc.Fonts,
	}, nil
}
