package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// IBM Carbon palette.
const (
	ColorTeal40    = "#3ddbd9"
	ColorBlue60    = "#4589ff"
	ColorBlue40    = "#78a9ff"
	ColorBlue70    = "#0043ce"
	ColorBlueBase  = "#0f62fe"
	ColorRed60     = "#da1e28"
	ColorRedStrong = "#ff0000"
	ColorOrange40  = "#ff832b"
	ColorGray60    = "#8d8d8d"
	ColorGray10    = "#f4f4f4"
)

// Styles holds the lipgloss styles of the console writer.
type Styles struct {
	Out               io.Writer
	NoColor           bool
	Timestamp         lipgloss.Style
	Levels            map[zerolog.Level]string // background colour per level
	Keys              map[string]lipgloss.Style
	DefaultKeyStyle   lipgloss.Style
	DefaultValueStyle lipgloss.Style
}

// StylesByName returns the "dark" (default) or "light" theme.
func StylesByName(name string) *Styles {
	if strings.EqualFold(name, "light") {
		return StylesLight()
	}
	return StylesDark()
}

// ConsoleWriterWithStyles builds a zerolog console writer rendering
// levels, keys and values through styles.
func ConsoleWriterWithStyles(styles *Styles) zerolog.ConsoleWriter {
	render := func(s lipgloss.Style, v string) string {
		if styles.NoColor {
			return v
		}
		return s.Render(v)
	}
	keyStyle := func(key string) lipgloss.Style {
		if s, ok := styles.Keys[key]; ok {
			return s
		}
		return styles.DefaultKeyStyle
	}

	return zerolog.ConsoleWriter{
		Out:        styles.Out,
		NoColor:    styles.NoColor,
		TimeFormat: "15:04:05",

		FormatLevel: func(i any) string {
			lvl := strings.ToLower(fmt.Sprint(i))
			label := strings.ToUpper(lvl)
			if len(label) > 3 {
				label = label[:3]
			}
			color := ColorGray60
			if level, err := zerolog.ParseLevel(lvl); err == nil {
				if c, ok := styles.Levels[level]; ok {
					color = c
				}
			}
			return render(lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffffff")).
				Background(lipgloss.Color(color)).
				Padding(0, 1), label)
		},

		FormatTimestamp: func(i any) string {
			return render(styles.Timestamp, fmt.Sprintf("[%s]", i))
		},

		FormatFieldName: func(i any) string {
			key := fmt.Sprint(i)
			return render(keyStyle(key), key) + render(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60)), "=")
		},

		FormatFieldValue: func(i any) string {
			return render(styles.DefaultValueStyle, fmt.Sprint(i))
		},

		FormatMessage: func(i any) string {
			if i == nil {
				return ""
			}
			return render(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray10)), fmt.Sprint(i))
		},
	}
}

func levelColors(info string) map[zerolog.Level]string {
	return map[zerolog.Level]string{
		zerolog.DebugLevel: ColorTeal40,
		zerolog.InfoLevel:  info,
		zerolog.WarnLevel:  ColorOrange40,
		zerolog.ErrorLevel: ColorRed60,
		zerolog.FatalLevel: ColorRedStrong,
	}
}

// StylesDark is the theme for dark terminals.
func StylesDark() *Styles {
	return &Styles{
		Timestamp:         lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60)),
		DefaultKeyStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
		DefaultValueStyle: lipgloss.NewStyle(),
		Levels:            levelColors(ColorBlue60),
		Keys: map[string]lipgloss.Style{
			"file":    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
			"archive": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
			"module":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
			"error":   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
		},
	}
}

// StylesLight is the theme for light terminals.
func StylesLight() *Styles {
	return &Styles{
		Timestamp:         lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60)),
		DefaultKeyStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
		DefaultValueStyle: lipgloss.NewStyle(),
		Levels:            levelColors(ColorBlue70),
		Keys: map[string]lipgloss.Style{
			"file":    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
			"archive": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
			"module":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
			"error":   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
		},
	}
}
