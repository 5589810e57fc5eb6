package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"menu-lens/api/internal/detail"
	"menu-lens/api/internal/dish"
	"menu-lens/api/internal/present"
	"menu-lens/api/internal/util"
)

const (
	cbOpen  = "open:"
	cbSave  = "save:"
	cbMode  = "mode"
	cbClose = "close"

	maxCaption = 1000
	maxText    = 3900
	historyMax = 20
)

// esc is light escaping for legacy Markdown.
func esc(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "[", "\\[")
	return s
}

func saveLabel(saved bool) string {
	if saved {
		return "★ Saved"
	}
	return "☆ Save"
}

// dishLine is the one-line summary used in lists.
func dishLine(n int, d dish.Dish) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. *%s*", n, esc(d.DisplayName()))
	if d.OriginalName != "" && d.OriginalName != d.Name {
		fmt.Fprintf(&b, " (%s)", esc(d.OriginalName))
	}
	fmt.Fprintf(&b, " %s", present.SpiceMeter(d.SpiceLevel))
	return b.String()
}

// dishCard is the full text of one dish.
func dishCard(d dish.Dish) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", esc(d.DisplayName()))
	if d.OriginalName != "" && d.OriginalName != d.Name {
		fmt.Fprintf(&b, "_%s_\n", esc(d.OriginalName))
	}
	if d.Category != "" {
		fmt.Fprintf(&b, "%s\n", esc(d.Category))
	}
	if d.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", esc(d.Description))
	}
	fmt.Fprintf(&b, "\nSpice: %s %s\n", present.SpiceMeter(d.SpiceLevel), d.SpiceLevel)
	fmt.Fprintf(&b, "Allergens: %s\n", esc(present.AllergenLabel(d.Allergens)))
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", esc(strings.Join(d.Tags, ", ")))
	}
	return b.String()
}

// resultsMessage renders a result set according to its layout.
func resultsMessage(v present.View, isSaved func(string) bool) (string, *tgbotapi.InlineKeyboardMarkup) {
	switch v.Layout {
	case present.LayoutEmpty:
		return "🤷 No dishes found in that photo. Try a closer shot of the menu or plate.", nil
	case present.LayoutSingle:
		d := v.Dishes[0]
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Details", cbOpen+d.ID),
			tgbotapi.NewInlineKeyboardButtonData(saveLabel(isSaved(d.ID)), cbSave+d.ID),
		))
		return util.Truncate(dishCard(d), maxText), &kb
	}

	var b strings.Builder
	if v.Dishes[0].IsMenu {
		fmt.Fprintf(&b, "📋 Found %d dishes on this menu:\n\n", len(v.Dishes))
	} else {
		fmt.Fprintf(&b, "🍽 Found %d dishes in this photo:\n\n", len(v.Dishes))
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(v.Dishes))
	for i, d := range v.Dishes {
		b.WriteString(dishLine(i+1, d))
		b.WriteString("\n")
		mark := "☆"
		if isSaved(d.ID) {
			mark = "★"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(i+1)+". "+util.Truncate(d.DisplayName(), 28), cbOpen+d.ID),
			tgbotapi.NewInlineKeyboardButtonData(mark, cbSave+d.ID),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return util.Truncate(b.String(), maxText), &kb
}

// detailKeyboard offers the image toggle only where there are two images.
func detailKeyboard(v detail.View, saved bool) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	if v.ShowToggle {
		label := "🗺 On the menu"
		if v.Mode == detail.SourceScan {
			label = "🖼 Illustration"
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbMode))
	}
	row = append(row,
		tgbotapi.NewInlineKeyboardButtonData(saveLabel(saved), cbSave+v.Dish.ID),
		tgbotapi.NewInlineKeyboardButtonData("✖ Close", cbClose),
	)
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func savedText(items []dish.SavedItem) string {
	if len(items) == 0 {
		return "Nothing saved yet. Tap ☆ on a dish to keep it here."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⭐ Saved dishes (%d):\n\n", len(items))
	for i, it := range items {
		fmt.Fprintf(&b, "%s · %s\n", dishLine(i+1, it.Dish), it.SavedAt.Format("Jan 2 15:04"))
	}
	return util.Truncate(b.String(), maxText)
}

func historyText(dishes []dish.Dish) string {
	if len(dishes) == 0 {
		return "No scans yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🕘 Recent dishes (%d):\n\n", len(dishes))
	for i, d := range dishes {
		if i == historyMax {
			fmt.Fprintf(&b, "…and %d more\n", len(dishes)-historyMax)
			break
		}
		b.WriteString(dishLine(i+1, d))
		b.WriteString("\n")
	}
	return util.Truncate(b.String(), maxText)
}
