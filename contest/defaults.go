package contest

var costumes = Contest{
	Slug:         "costumes",
	Name:         "Costume Throwdown",
	Tagline:      "Turn up in your wildest Halloween fits and battle for the crown.",
	NavLabel:     "Costume Contest",
	UploadTitle:  "Upload Your Costume",
	VoteTitle:    "Vote for Costumes",
	ResultsTitle: "Costume Results",
	Categories: []Category{
		{ID: "best_costume", Label: "Best Costume"},
		{ID: "spookiest", Label: "Spookiest Costume"},
		{ID: "funniest", Label: "Funniest Costume"},
		{ID: "best_group", Label: "Best Group Costume"},
		{ID: "best_diy", Label: "Top DIY Costume"},
	},
}

var pumpkins = Contest{
	Slug:         "pumpkins",
	Name:         "The Great Pumpkin-Off",
	Tagline:      "Our mini pumpkin painting extravaganza is in full swing, pick the gourds that wowed you.",
	NavLabel:     "Pumpkin-Off",
	UploadTitle:  "Upload Your Pumpkin",
	VoteTitle:    "Vote for Pumpkins",
	ResultsTitle: "Pumpkin Results",
	Categories: []Category{
		{ID: "pumpkin_mad_genius", Label: "Mad Pumpkin Genius – Most Unique"},
		{ID: "pumpkin_picasso", Label: "Pumpkin Picasso – Most Creative"},
		{ID: "pumpkin_joker", Label: "Chief Pumpkin Joker – Funniest Pumpkin"},
		{ID: "pumpkin_cute", Label: "Adorable Gourd – Cutest Pumpkin"},
		{ID: "pumpkin_spook", Label: "Scare-tacular Pumpkin – Spookiest Pumpkin"},
		{ID: "pumpkin_spirit", Label: "Spirit of Halloween – Best Halloween Spirit"},
	},
}

// DefaultRegistry returns the registry of contests the service ships with.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(costumes, pumpkins)
	if err != nil {
		// static data, only reachable if the definitions above are edited badly
		panic(err)
	}
	return r
}
