// Package payslip reads the net monthly pay off a text-based payslip PDF.
package payslip

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
)

var (
	ErrNetPayNotFound = errors.New("net pay not found on payslip")
	ErrUnreadablePDF  = errors.New("payslip is not a readable PDF")
)

// netPayPattern matches a net pay label followed by an amount, allowing a
// currency code or symbol in between.
var netPayPattern = regexp.MustCompile(`(?i)(?:net\s*pay|net\s*salary|take\s*home(?:\s*pay)?)[^0-9\n]{0,12}([0-9][0-9,]*(?:\.[0-9]+)?)`)

// Parser extracts net pay from payslip PDFs.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// NetPay returns the net monthly pay printed on the payslip in data.
func (p *Parser) NetPay(data []byte) (float64, error) {
	text, err := ExtractText(data)
	if err != nil {
		return 0, err
	}
	return ParseNetPay(text)
}

// ExtractText returns the text of every page, one line per text row.
func ExtractText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadablePDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrUnreadablePDF, i, err)
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
			}
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// ParseNetPay finds the first net pay amount in text.
func ParseNetPay(text string) (float64, error) {
	match := netPayPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, ErrNetPayNotFound
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return 0, fmt.Errorf("parse net pay %q: %w", match[1], err)
	}
	if !amount.IsPositive() {
		return 0, ErrNetPayNotFound
	}

	return amount.Round(2).InexactFloat64(), nil
}
