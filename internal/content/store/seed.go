package store

import "azadi/internal/content/models"

// Seed data served for collections that have never been written.

func SeedDonations() []models.Donation { return []models.Donation{} }

func SeedLeaders() []models.Leader { return []models.Leader{} }

func SeedMembers() []models.Member { return []models.Member{} }

func SeedExpenses() []models.Expense {
	return []models.Expense{
		{ID: "e1", Title: "Event Banner", Description: "Banner for peace rally", Amount: 1200, Category: "Marketing", Date: "2023-10-01"},
	}
}

func SeedEvents() []models.Event {
	return []models.Event{
		{
			ID:          "ev1",
			Title:       models.LocalizedText{EN: "Free Medical Camp", BN: "বিনামূল্যে চিকিৎসা ক্যাম্প"},
			Description: models.LocalizedText{EN: "Free checkups for the poor.", BN: "দরিদ্রদের জন্য বিনামূল্যে চেকআপ।"},
			Location:    "Sylhet",
			Date:        "2023-11-15",
			Image:       "https://picsum.photos/800/400?random=10",
		},
	}
}

func SeedGallery() []models.GalleryItem {
	return []models.GalleryItem{
		{ID: "g1", ImageURL: "https://picsum.photos/600/600?random=1", Category: "Social Work",
			Caption: models.LocalizedText{EN: "Winter Cloth Distribution", BN: "শীতবস্ত্র বিতরণ"}},
		{ID: "g2", ImageURL: "https://picsum.photos/600/600?random=2", Category: "Meetings",
			Caption: models.LocalizedText{EN: "Annual Committee Meeting", BN: "বার্ষিক কমিটি সভা"}},
		{ID: "g3", ImageURL: "https://picsum.photos/600/600?random=3", Category: "Events",
			Caption: models.LocalizedText{EN: "Sports Day 2023", BN: "ক্রীড়া দিবস ২০২৩"}},
	}
}
