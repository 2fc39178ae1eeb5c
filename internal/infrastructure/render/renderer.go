// Package render produces the plain display text for a listing. Rich
// formatting lives in the management service; the engine only needs something
// presentable to hand to the send paths.
package render

import (
	"fmt"
	"strings"

	"github.com/estateflow/publisher/internal/domain"
)

// Renderer is the default plain-text listing formatter.
type Renderer struct{}

// NewRenderer creates a new plain-text renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Format builds the listing's display text.
func (r *Renderer) Format(object *domain.Object, user *domain.User, isPreview bool, format string) string {
	var b strings.Builder

	if isPreview {
		b.WriteString("[Предпросмотр]\n")
	}

	b.WriteString(object.Title)
	b.WriteString("\n")

	if object.RoomType != "" {
		fmt.Fprintf(&b, "Тип: %s\n", object.RoomType)
	}
	if object.District != "" {
		fmt.Fprintf(&b, "Район: %s\n", object.District)
	}
	if object.Address != "" {
		fmt.Fprintf(&b, "Адрес: %s\n", object.Address)
	}
	if object.Price > 0 {
		fmt.Fprintf(&b, "Цена: %d ₽\n", object.Price)
	}
	if object.Text != "" {
		b.WriteString("\n")
		b.WriteString(object.Text)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// Ensure Renderer implements domain.TextRenderer interface
var _ domain.TextRenderer = (*Renderer)(nil)
