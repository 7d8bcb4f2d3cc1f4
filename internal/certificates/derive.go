package certificates

import (
	"fmt"
	"strings"
	"time"
)

const collectionDateLayout = "2006-01-02"

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// MonthName returns the pt-BR name of a calendar month, 1-indexed
func MonthName(month int) (string, error) {
	if month < 1 || month > len(monthNames) {
		return "", fmt.Errorf("%w: month %d out of range", ErrInvalidDate, month)
	}
	return monthNames[month-1], nil
}

// DateParts are the values printed from the collection date
type DateParts struct {
	Date      time.Time
	Day       int
	Month     int
	MonthName string
	Year      int
	Formatted string // DD/MM/YYYY
}

// LongForm renders the date as "15 de janeiro de 2025"
func (d DateParts) LongForm() string {
	return fmt.Sprintf("%d de %s de %d", d.Day, d.MonthName, d.Year)
}

// DeriveDate parses a YYYY-MM-DD collection date
func DeriveDate(value string) (DateParts, error) {
	t, err := time.Parse(collectionDateLayout, strings.TrimSpace(value))
	if err != nil {
		return DateParts{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, value, err)
	}

	name, err := MonthName(int(t.Month()))
	if err != nil {
		return DateParts{}, err
	}

	return DateParts{
		Date:      t,
		Day:       t.Day(),
		Month:     int(t.Month()),
		MonthName: name,
		Year:      t.Year(),
		Formatted: t.Format("02/01/2006"),
	}, nil
}
