package services

import (
	"log"

	"github.com/craftsite-simple/models"
	"github.com/craftsite-simple/repositories"
)

// defaultIntents are the canned keyword answers seeded on first start.
var defaultIntents = []models.Intent{
	{
		Tags:   models.StringList{"hello", "hi", "hey"},
		Answer: "Hello! Ask me anything about building and publishing your site.",
	},
	{
		Tags:   models.StringList{"price", "pricing", "cost", "plan"},
		Answer: "Site creation and hosting are included in your account. Custom plans are not available yet.",
	},
	{
		Tags:   models.StringList{"deploy", "publish", "online", "live"},
		Answer: "Your site goes live automatically after creation. The public link is shown on your dashboard and sent to your contact number.",
	},
	{
		Tags:   models.StringList{"admin", "login", "password"},
		Answer: "Ecommerce sites are created with a default admin account. Check the credentials shown after creation and change the password right away.",
	},
	{
		Tags:   models.StringList{"delete", "remove"},
		Answer: "You can delete a site from your dashboard. This removes the published site and its database permanently.",
	},
	{
		Tags:   models.StringList{"order", "cart", "checkout"},
		Answer: "Customers can sign up on your shop, fill their cart and place orders. You get a message for every new order.",
	},
}

// SeedIntents inserts the default intents if none exist yet. Re-running is a
// no-op so restarts never duplicate rows.
func SeedIntents(intents *repositories.IntentRepository) error {
	count, err := intents.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if err := intents.CreateBatch(defaultIntents); err != nil {
		return err
	}
	log.Printf("✅ Seeded %d chatbot intents", len(defaultIntents))
	return nil
}
