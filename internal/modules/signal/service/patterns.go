package service

import (
	"math"

	"options_bot/internal/models"
)

// Имена паттернов в каноническом порядке проверки: сначала трёхсвечные
// развороты, затем двухсвечные, затем одиночные свечи. Порядок фиксирован,
// чтобы "первый хит" был детерминированным.
const (
	PatternMorningStar        = "morning_star"
	PatternEveningStar        = "evening_star"
	PatternThreeWhiteSoldiers = "three_white_soldiers"
	PatternThreeBlackCrows    = "three_black_crows"
	PatternBullishEngulfing   = "bullish_engulfing"
	PatternBearishEngulfing   = "bearish_engulfing"
	PatternBullishMomentum    = "bullish_momentum"
	PatternBearishMomentum    = "bearish_momentum"
	PatternHammer             = "hammer"
	PatternShootingStar       = "shooting_star"
	PatternDoji               = "doji"
)

// CandlePatterns — детектор свечных паттернов на последней свече окна.
// Strength знаковая: >0 бычий сетап, <0 медвежий.
type CandlePatterns struct{}

func NewCandlePatterns() *CandlePatterns { return &CandlePatterns{} }

func (d *CandlePatterns) Detect(win models.CandleWindow) []models.PatternHit {
	n := len(win)
	if n == 0 {
		return nil
	}

	cur := win[n-1]
	avgBody := avgBodySize(win.Tail(5))

	var hits []models.PatternHit
	add := func(name string, strength float64) {
		if strength == 0 {
			return
		}
		hits = append(hits, models.PatternHit{Name: name, Strength: strength})
	}

	if n >= 3 {
		first, mid := win[n-3], win[n-2]

		// утренняя/вечерняя звезда: крупная свеча, гэп на малое тело,
		// закрытие третьей за серединой первой
		midBody := bodySize(mid)
		if isBearish(first) && bodySize(first) > avgBody &&
			midBody < avgBody*0.3 && mid.Open < first.Close &&
			isBullish(cur) && bodySize(cur) > avgBody &&
			cur.Close > midpoint(first) {
			add(PatternMorningStar, ratioOr(bodySize(cur), avgBody, 1))
		}
		if isBullish(first) && bodySize(first) > avgBody &&
			midBody < avgBody*0.3 && mid.Open > first.Close &&
			isBearish(cur) && bodySize(cur) > avgBody &&
			cur.Close < midpoint(first) {
			add(PatternEveningStar, -ratioOr(bodySize(cur), avgBody, 1))
		}

		if isBullish(first) && isBullish(mid) && isBullish(cur) {
			sum := bodySize(first) + bodySize(mid) + bodySize(cur)
			add(PatternThreeWhiteSoldiers, ratioOr(sum/3, avgBody, 1))
		}
		if isBearish(first) && isBearish(mid) && isBearish(cur) {
			sum := bodySize(first) + bodySize(mid) + bodySize(cur)
			add(PatternThreeBlackCrows, -ratioOr(sum/3, avgBody, 1))
		}
	}

	if n >= 2 {
		prev := win[n-2]
		// поглощение: тело текущей накрывает тело предыдущей и крупнее на 20%
		if isBullish(cur) && isBearish(prev) &&
			cur.Open < prev.Close && cur.Close > prev.Open &&
			bodySize(cur) > bodySize(prev)*1.2 {
			add(PatternBullishEngulfing, ratioOr(bodySize(cur), bodySize(prev), 2)-1)
		}
		if isBearish(cur) && isBullish(prev) &&
			cur.Open > prev.Close && cur.Close < prev.Open &&
			bodySize(cur) > bodySize(prev)*1.2 {
			add(PatternBearishEngulfing, -(ratioOr(bodySize(cur), bodySize(prev), 2) - 1))
		}
	}

	body := bodySize(cur)
	upper := upperWick(cur)
	lower := lowerWick(cur)

	// импульсная свеча: тело сильно больше среднего, почти без теней
	if body > avgBody*1.5 && upper < body*0.2 && lower < body*0.2 {
		if isBullish(cur) {
			add(PatternBullishMomentum, ratioOr(body, avgBody, 2))
		} else if isBearish(cur) {
			add(PatternBearishMomentum, -ratioOr(body, avgBody, 2))
		}
	}

	if lower > body*2 && upper < body*0.5 {
		add(PatternHammer, ratioOr(lower, body, 3))
	}
	if upper > body*2 && lower < body*0.5 {
		add(PatternShootingStar, -ratioOr(upper, body, 3))
	}

	// доджи: тело карлик на фоне среднего, хоть одна заметная тень;
	// знак по предыдущей свече — доджи читается как намёк на разворот
	if body < avgBody*0.3 && (upper > body || lower > body) {
		s := 0.2
		if n >= 2 && isBullish(win[n-2]) {
			s = -0.2
		}
		add(PatternDoji, s)
	}

	return hits
}

func bodySize(c models.Candle) float64 { return math.Abs(c.Close - c.Open) }
func isBullish(c models.Candle) bool   { return c.Close > c.Open }
func isBearish(c models.Candle) bool   { return c.Close < c.Open }
func midpoint(c models.Candle) float64 { return c.Open + (c.Close-c.Open)/2 }

func upperWick(c models.Candle) float64 { return c.High - math.Max(c.Open, c.Close) }
func lowerWick(c models.Candle) float64 { return math.Min(c.Open, c.Close) - c.Low }

func avgBodySize(win models.CandleWindow) float64 {
	if len(win) == 0 {
		return 0
	}
	var sum float64
	for _, c := range win {
		sum += bodySize(c)
	}
	return sum / float64(len(win))
}

// ratioOr защищает деление: на нулевом знаменателе отдаёт запасное значение.
func ratioOr(num, den, fallback float64) float64 {
	if den <= 0 {
		return fallback
	}
	return num / den
}
