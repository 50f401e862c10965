package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"futures-trading-bot-binance/internal/model"
)

var errInputClosed = errors.New("input closed")

// prompter reads line-oriented answers, re-asking until the answer parses.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) line(prompt, def string, required bool) (string, error) {
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", prompt, def)
	} else {
		prompt += ": "
	}

	for {
		fmt.Fprint(p.out, prompt)
		if !p.in.Scan() {
			return "", errInputClosed
		}
		value := strings.TrimSpace(p.in.Text())
		if value == "" && def != "" {
			return def, nil
		}
		if value == "" && required {
			fmt.Fprintln(p.out, errorStyle.Render("❌ This field is required. Please enter a value."))
			continue
		}
		return value, nil
	}
}

func (p *prompter) text(prompt, def string) (string, error) {
	return p.line(prompt, def, true)
}

func (p *prompter) optional(prompt string) (string, error) {
	return p.line(prompt, "", false)
}

func (p *prompter) symbol(prompt, def string, required bool) (string, error) {
	s, err := p.line(prompt, def, required)
	return strings.ToUpper(s), err
}

func (p *prompter) number(prompt string, def decimal.Decimal) (decimal.Decimal, error) {
	defStr := ""
	if !def.IsZero() {
		defStr = def.String()
	}
	for {
		s, err := p.text(prompt, defStr)
		if err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(s)
		if err == nil {
			return d, nil
		}
		fmt.Fprintln(p.out, errorStyle.Render("❌ Please enter a valid number."))
	}
}

func (p *prompter) integer(prompt string, def int) (int64, error) {
	defStr := ""
	if def != 0 {
		defStr = strconv.Itoa(def)
	}
	for {
		s, err := p.text(prompt, defStr)
		if err != nil {
			return 0, err
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return i, nil
		}
		fmt.Fprintln(p.out, errorStyle.Render("❌ Please enter a valid integer."))
	}
}

func (p *prompter) side() (model.Side, error) {
	for {
		s, err := p.text("Order Side (BUY/SELL)", "")
		if err != nil {
			return "", err
		}
		switch side := model.Side(strings.ToUpper(s)); side {
		case model.SideBuy, model.SideSell:
			return side, nil
		}
		fmt.Fprintln(p.out, errorStyle.Render("❌ Please enter BUY or SELL."))
	}
}

func (p *prompter) yesNo(prompt string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		s, err := p.optional(fmt.Sprintf("%s (%s)", prompt, hint))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, errorStyle.Render("❌ Please enter Y or N."))
	}
}
