package models

// DefaultMarketMarkers flag a source as a market feed. Matched case-insensitively.
var DefaultMarketMarkers = []string{
	"crypto", "stock", "market", "finance", "upbit", "bithumb", "binance",
	"coinbase", "krx", "kospi", "kosdaq", "nasdaq", "nyse", "fred",
	"alpha vantage", "coingecko",
}

// DefaultCategoryKeywords maps categories to keyword substrings.
// Checked in the order of CategoryKeywordOrder.
var DefaultCategoryKeywords = map[Category][]string{
	CategoryFinance: {
		"비트코인", "이더리움", "코인", "주식", "증시", "코스피", "코스닥", "환율", "금리",
		"달러", "나스닥", "반도체주", "상장", "배당", "etf", "bitcoin", "btc", "ethereum",
		"eth", "crypto", "stock", "fed", "inflation", "nasdaq", "dow", "s&p 500", "s&p500",
	},
	CategoryLifestyle: {
		"맛집", "여행", "패션", "뷰티", "다이어트", "레시피", "카페", "캠핑",
		"운동", "인테리어", "육아", "food", "travel", "fashion", "beauty", "recipe",
	},
	CategoryCeleb: {
		"아이돌", "배우", "가수", "열애", "결혼", "컴백", "드라마", "예능", "콘서트",
		"뉴진스", "아이브", "bts", "blackpink", "idol", "actor", "singer", "concert",
	},
}

// CategoryKeywordOrder fixes the keyword-list priority.
var CategoryKeywordOrder = []Category{
	CategoryFinance,
	CategoryLifestyle,
	CategoryCeleb,
}
