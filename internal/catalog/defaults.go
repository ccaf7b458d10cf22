package catalog

import "github.com/shopspring/decimal"

// DefaultItems returns the menu seeded on first run.
func DefaultItems() []MenuItem {
	return []MenuItem{
		{ID: 1, Name: "Idly", Price: decimal.NewFromInt(25), Image: "https://images.unsplash.com/photo-1596797038530-2c107229654b?w=400", Description: "Soft steamed rice cakes"},
		{ID: 2, Name: "Puttu", Price: decimal.NewFromInt(30), Image: "https://images.unsplash.com/photo-1571997478779-2adcbbe9ab2f?w=400", Description: "Steamed rice cake with coconut"},
		{ID: 3, Name: "Poori", Price: decimal.NewFromInt(40), Image: "https://images.unsplash.com/photo-1601050690597-df0568f70950?w=400", Description: "Deep fried bread"},
		{ID: 4, Name: "Coffee", Price: decimal.NewFromInt(15), Image: "https://images.unsplash.com/photo-1517487881594-2787fef5ebf7?w=400", Description: "Hot South Indian filter coffee"},
		{ID: 5, Name: "Dosa", Price: decimal.NewFromInt(45), Image: "https://images.unsplash.com/photo-1586190848861-99aa4a171e90?w=400", Description: "Crispy fermented crepe"},
		{ID: 6, Name: "Vada", Price: decimal.NewFromInt(20), Image: "https://images.unsplash.com/photo-1585937421612-70a008356fbe?w=400", Description: "Savory fried doughnut"},
		{ID: 7, Name: "Pazhampori", Price: decimal.NewFromInt(35), Image: "https://images.unsplash.com/photo-1576610616656-d3aa5d1f4534?w=400", Description: "Sweet banana fritters"},
	}
}
