package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"

	"github.com/little-lingo/tutor_api/model"
	"github.com/little-lingo/tutor_api/services"
	"github.com/little-lingo/tutor_api/shared"
)

// Seeds the first season's episode prompts and a demo learner so a fresh
// install has something to play.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var dbPath = flag.String("db", "", "Database path (overrides DB_DATABASE env var)")
	flag.Parse()

	databasePath := *dbPath
	if databasePath == "" {
		databasePath = os.Getenv("DB_DATABASE")
		if databasePath == "" {
			databasePath = "tutor_api.db"
		}
	}

	store, err := services.NewGormStore(sqlite.Open(databasePath))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	log.Printf("Connected to database: %s", databasePath)

	ctx := context.Background()

	if err := seedEpisodes(ctx, store); err != nil {
		log.Fatalf("Failed to seed episodes: %v", err)
	}
	if err := seedDemoUser(ctx, store); err != nil {
		log.Fatalf("Failed to seed demo user: %v", err)
	}

	log.Println("Seeding complete")
}

type episodeSeed struct {
	episode    int
	title      string
	prompt     string
	words      []string
	topics     []string
	objectives []string
}

var seasonOne = []episodeSeed{
	{1, "Hello, Friend!", "You are a friendly English tutor for young children. Greet the child warmly, teach simple greetings and introduce yourself. Keep sentences short and cheerful.", []string{"hello", "goodbye", "friend", "name"}, []string{"greetings", "introductions"}, []string{"Greet someone politely", "Say your own name"}},
	{2, "Colors All Around", "You are a playful English tutor. Explore colors with the child through things they can see around them. Ask them to name colors of everyday objects.", []string{"red", "blue", "yellow", "green"}, []string{"colors", "everyday objects"}, []string{"Name four basic colors"}},
	{3, "Counting Fun", "You are an encouraging English tutor. Practice counting from one to ten with songs and little games. Celebrate every correct answer.", []string{"one", "two", "three", "ten"}, []string{"numbers", "counting"}, []string{"Count from one to ten"}},
	{4, "My Family", "You are a warm English tutor. Talk about family members and who lives at home with the child. Teach the family words gently.", []string{"mother", "father", "sister", "brother"}, []string{"family"}, []string{"Name family members"}},
	{5, "Animal Friends", "You are an excited English tutor. Discover animals and the sounds they make. Encourage the child to imitate animal sounds and name the animals.", []string{"dog", "cat", "bird", "fish"}, []string{"animals", "animal sounds"}, []string{"Name four common animals"}},
	{6, "Yummy Food", "You are a cheerful English tutor. Talk about favorite foods, fruits and what the child likes to eat. Practice saying please and thank you.", []string{"apple", "banana", "milk", "bread"}, []string{"food", "politeness"}, []string{"Name favorite foods", "Use please and thank you"}},
	{7, "Weather Today", "You are a curious English tutor. Look outside together and talk about the weather. Teach sunny, rainy, windy and cloudy with gestures.", []string{"sunny", "rainy", "windy", "cloudy"}, []string{"weather", "seasons"}, []string{"Describe today's weather"}},
}

func seedEpisodes(ctx context.Context, store services.DocumentStore) error {
	now := time.Now().UTC()

	for _, seed := range seasonOne {
		docID := model.EpisodeDocumentID(1, seed.episode)

		existing, err := store.Get(ctx, shared.EpisodePromptsCollection, docID)
		if err != nil {
			return err
		}
		if existing != nil {
			log.Printf("Episode %s already exists, skipping", docID)
			continue
		}

		ep := &model.EpisodePrompt{
			Season:             1,
			Episode:            seed.episode,
			Title:              seed.title,
			SystemPrompt:       seed.prompt,
			WordsToTeach:       seed.words,
			TopicsToCover:      seed.topics,
			LearningObjectives: seed.objectives,
			DifficultyLevel:    "beginner",
			AgeGroup:           "4-6",
			UsersCompleted:     []string{},
			Ratings:            []int{},
			WordsTaught:        []string{},
			TopicsTaught:       []string{},
			CreatedAt:          now,
		}

		doc, err := ep.ToDocument()
		if err != nil {
			return err
		}
		if err := store.Set(ctx, shared.EpisodePromptsCollection, docID, doc); err != nil {
			return err
		}
		log.Printf("Seeded episode %s: %s", docID, seed.title)
	}
	return nil
}

func seedDemoUser(ctx context.Context, store services.DocumentStore) error {
	email := "demo@example.com"

	existing, err := store.Get(ctx, shared.UsersCollection, email)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Printf("Demo user already exists, skipping")
		return nil
	}

	user := model.NewEnhancedUser("DEMO0001", "Demo Kid", 5, email, model.Parent{
		Name:  "Demo Parent",
		Age:   35,
		Email: "parent@example.com",
	})

	doc, err := user.ToDocument()
	if err != nil {
		return err
	}
	if err := store.Set(ctx, shared.UsersCollection, email, doc); err != nil {
		return err
	}

	fmt.Printf("Seeded demo user %s with device %s\n", user.Email, user.DeviceID)
	return nil
}
