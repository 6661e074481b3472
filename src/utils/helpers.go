package utils

import (
	"cowork/src/config"
	"cowork/src/types"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Stripe rejects metadata values longer than this, and objects with more keys
// than StripeMetadataKeyLimit.
const (
	StripeMetadataValueLimit = 500
	StripeMetadataKeyLimit   = 50
)

var ErrMetadataTooLarge = errors.New("value does not fit in Stripe metadata")

// ToMinorUnits converts a price to cents, rounding to the nearest cent.
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// NewOrderID builds ORD-<last 8 digits of unix millis>-<6 hex chars>.
// The time part keeps ids sortable for support lookups; the random part
// keeps two checkouts in the same millisecond apart.
func NewOrderID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("ORD-%s-%s", ms, suffix)
}

// MonthWindow returns the half-open window [first of month, first of next month)
// containing now, in loc. December rolls over to January of the next year;
// time.Date normalizes month 13.
func MonthWindow(now time.Time, loc *time.Location) (start time.Time, end time.Time) {
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	end = time.Date(local.Year(), local.Month()+1, 1, 0, 0, 0, 0, loc)
	return start, end
}

// InWindow compares calendar dates only, so a date stored as UTC midnight
// matches a window built in another zone.
func InWindow(date time.Time, start time.Time, end time.Time) bool {
	d := dateKey(date)
	return d >= dateKey(start) && d < dateKey(end)
}

func dateKey(t time.Time) string {
	return t.Format(config.DATE_FORMAT)
}

func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(config.DATE_FORMAT, value, loc)
}

func ParseClock(value string) (time.Time, error) {
	return time.Parse(config.CLOCK_FORMAT, value)
}

// DurationHours is end minus start for two HH:MM clock values.
func DurationHours(start string, end string) (float64, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	if !e.After(s) {
		return 0, errors.New("end time must be after start time")
	}
	return e.Sub(s).Hours(), nil
}

// RemainingHours never goes below zero.
func RemainingHours(allotted float64, used float64) float64 {
	return math.Max(0, allotted-used)
}

// ChunkMetadata stores value under key, splitting it into key_0..key_n when it
// does not fit a single Stripe metadata value. Cuts fall on rune boundaries so
// every chunk is valid UTF-8. md is left untouched when the chunks would not
// fit in the remaining keys.
func ChunkMetadata(md map[string]string, key string, value string) error {
	if len(value) <= StripeMetadataValueLimit {
		if len(md) >= StripeMetadataKeyLimit {
			return ErrMetadataTooLarge
		}
		md[key] = value
		return nil
	}
	var chunks []string
	for len(value) > 0 {
		n := min(StripeMetadataValueLimit, len(value))
		for n < len(value) && n > 0 && !utf8.RuneStart(value[n]) {
			n--
		}
		chunks = append(chunks, value[:n])
		value = value[n:]
	}
	if len(md)+len(chunks) > StripeMetadataKeyLimit {
		return ErrMetadataTooLarge
	}
	for i, chunk := range chunks {
		md[fmt.Sprintf("%s_%d", key, i)] = chunk
	}
	return nil
}

// JoinMetadata reverses ChunkMetadata.
func JoinMetadata(md map[string]string, key string) (string, bool) {
	if v, ok := md[key]; ok {
		return v, true
	}
	prefix := key + "_"
	type part struct {
		idx   int
		value string
	}
	var parts []part
	for k, v := range md {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(k, prefix))
		if err != nil {
			continue
		}
		parts = append(parts, part{idx, v})
	}
	if len(parts) == 0 {
		return "", false
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].idx < parts[j].idx })
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.value)
	}
	return sb.String(), true
}

func EncodeCart(items []types.CartItem) (string, error) {
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeCart(md map[string]string) ([]types.CartItem, error) {
	raw, ok := JoinMetadata(md, types.META_CART_ITEMS)
	if !ok {
		return nil, errors.New("no cart in metadata")
	}
	var items []types.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}
