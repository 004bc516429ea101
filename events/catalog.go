package events

var festivalEvents = []Event{
	{ID: "web-dev", Name: "Web Development Challenge", Price: 100, Category: TECHNICAL},
	{ID: "poster", Name: "Poster Presentation", Price: 100, Category: TECHNICAL},
	{ID: "tech-expo", Name: "Tech Expo", Price: 100, Category: TECHNICAL},
	{ID: "pymaster", Name: "PyMaster Contest", Price: 50, Category: TECHNICAL},
	{ID: "tech-quiz", Name: "Technical Quiz", Price: 100, Category: TECHNICAL},
	{ID: "photography", Name: "Photography Contest", Price: 50, Category: NON_TECHNICAL},
	{ID: "free-fire", Name: "Free Fire Esports Championship", Price: 200, Category: NON_TECHNICAL},
	{ID: "drawing", Name: "Live Drawing", Price: 50, Category: NON_TECHNICAL},
	{ID: "bgmi", Name: "BGMI Esports Tournament", Price: 200, Category: NON_TECHNICAL},
	{ID: "meme-contest", Name: "Tech Meme Contest", Price: 50, Category: NON_TECHNICAL},
}

// FestivalCatalog returns the events offered at the festival.
func FestivalCatalog() *Catalog {
	c, err := NewCatalog(festivalEvents...)
	if err != nil {
		panic("festival catalog is invalid: " + err.Error())
	}
	return c
}
