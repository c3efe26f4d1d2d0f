package receipt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// Renderer отрисовывает чек в конечный формат.
type Renderer interface {
	Render(w io.Writer, doc Document) error
}

// PDFRenderer отрисовывает чек в PDF формата A4.
type PDFRenderer struct {
	logger *zap.Logger
}

// NewPDFRenderer создаёт отрисовщик PDF.
func NewPDFRenderer(logger *zap.Logger) *PDFRenderer {
	return &PDFRenderer{logger: logger}
}

// Render выполняет инструкции документа и пишет PDF в w.
func (r *PDFRenderer) Render(w io.Writer, doc Document) error {
	if r == nil {
		return ErrFeatureUnavailable
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetSubject(doc.Subject, true)
	pdf.SetCreator("Seller Tracker", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// встроенные шрифты работают в cp1252, знак × в ней есть
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, in := range doc.Instructions {
		switch in.Kind {
		case KindPageBreak:
			pdf.AddPage()
		case KindImage:
			r.drawImage(pdf, fmt.Sprintf("logo-%d", i), in)
		case KindText:
			style := ""
			if in.Bold {
				style = "B"
			}
			pdf.SetFont("Helvetica", style, in.FontSize)
			pdf.SetTextColor(in.Color.R, in.Color.G, in.Color.B)

			text := tr(in.Text)
			x := in.X
			if in.Align == AlignCenter {
				x -= pdf.GetStringWidth(text) / 2
			}
			pdf.Text(x, in.Y, text)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// drawImage вставляет изображение; повреждённое изображение пропускается.
func (r *PDFRenderer) drawImage(pdf *fpdf.Fpdf, name string, in Instruction) {
	if in.Image == nil {
		return
	}

	opts := fpdf.ImageOptions{ImageType: in.Image.Type}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(in.Image.Data))
	if !pdf.Ok() {
		r.logger.Warn("skip receipt logo", zap.Error(pdf.Error()))
		pdf.ClearError()
		return
	}
	pdf.ImageOptions(name, in.X, in.Y, in.Image.Width, in.Image.Height, false, opts, 0, "")
}
