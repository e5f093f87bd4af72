package feeds

import "github.com/jdholdren/touchline/internal/touchline"

// Sources are the feeds pulled on every run.
//
// To follow a new feed, add it here.
var Sources = []touchline.FeedSource{
	{
		Name:     "BBC Football",
		URL:      "https://feeds.bbci.co.uk/sport/football/rss.xml",
		Language: "en",
	},
	{
		Name:     "ESPN FC",
		URL:      "https://www.espn.com/espn/rss/soccer/news",
		Language: "en",
	},
	{
		Name:     "Goal.com",
		URL:      "https://www.goal.com/feeds/en/news",
		Language: "en",
	},
}
