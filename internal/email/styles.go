package email

// Decl is a single inline CSS declaration.
type Decl struct {
	Property string
	Value    string
}

// Style is an ordered list of inline CSS declarations.
type Style []Decl

var (
	styleBody = Style{
		{"background-color", "#f6f9fc"},
		{"font-family", "-apple-system, sans-serif"},
	}
	styleContainer = Style{
		{"background-color", "#ffffff"},
		{"margin", "0 auto"},
		{"padding", "20px"},
		{"border-radius", "5px"},
		{"box-shadow", "0 2px 4px rgba(0, 0, 0, 0.1)"},
	}
	styleTitle = Style{
		{"color", "#1f2937"},
		{"font-size", "32px"},
		{"font-weight", "bold"},
		{"text-align", "center"},
		{"margin", "0 0 20px"},
	}
	styleHeading = Style{
		{"color", "#1f2937"},
		{"font-size", "20px"},
		{"font-weight", "600"},
		{"margin", "0 0 16px"},
	}
	styleText = Style{
		{"color", "#4b5563"},
		{"font-size", "16px"},
		{"margin", "0 0 16px"},
	}
	styleSection = Style{
		{"margin-top", "32px"},
		{"padding", "20px"},
		{"background-color", "#f9fafb"},
		{"border-radius", "5px"},
		{"border", "1px solid #e5e7eb"},
	}
	styleStatsContainer = Style{
		{"margin", "32px 0"},
		{"padding", "20px"},
		{"background-color", "#f9fafb"},
		{"border-radius", "5px"},
	}
	styleStat = Style{
		{"margin-bottom", "16px"},
		{"padding", "12px"},
		{"background-color", "#fff"},
		{"border-radius", "4px"},
		{"box-shadow", "0 1px 2px rgba(0, 0, 0, 0.05)"},
	}
	styleRow = Style{
		{"display", "flex"},
		{"justify-content", "space-between"},
		{"padding", "12px 0"},
		{"border-bottom", "1px solid #e5e7eb"},
	}
	styleFooter = Style{
		{"color", "#6b7280"},
		{"font-size", "14px"},
		{"text-align", "center"},
		{"margin-top", "32px"},
		{"padding-top", "16px"},
		{"border-top", "1px solid #e5e7eb"},
	}
)

// CSS renders the declarations as an inline style attribute value.
func (s Style) CSS() string {
	out := make([]byte, 0, len(s)*24)
	for _, d := range s {
		out = append(out, d.Property...)
		out = append(out, ':')
		out = append(out, d.Value...)
		out = append(out, ';')
	}
	return string(out)
}
