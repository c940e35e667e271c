package httpx

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ErrBadParam — некорректный параметр запроса (→ 400).
var ErrBadParam = errors.New("bad request parameter")

// ClampInt — ограничение значения v в диапазоне [min, max].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseFetchWindow — читает from/max из query.
// from: по умолчанию 0, отрицательный или нечисловой — ошибка.
// max: по умолчанию defaultMax, приводится к [1, maxMax], нечисловой — defaultMax.
func ParseFetchWindow(c *gin.Context, defaultMax, maxMax int) (from int64, limit int, err error) {
	from = 0
	if raw, ok := c.GetQuery("from"); ok {
		v, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || v < 0 {
			return 0, 0, fmt.Errorf("%w: from=%q", ErrBadParam, raw)
		}
		from = v
	}

	limit = ClampInt(defaultMax, 1, maxMax)
	if v, perr := strconv.Atoi(c.DefaultQuery("max", strconv.Itoa(defaultMax))); perr == nil {
		limit = ClampInt(v, 1, maxMax)
	}
	return from, limit, nil
}

// ParamInt — неотрицательный целый параметр пути.
func ParamInt(c *gin.Context, name string) (int, error) {
	raw := c.Param(name)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadParam, name, raw)
	}
	return v, nil
}
