package clipper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/mealplan"
)

// maxContentChars caps the page text sent to the model.
const maxContentChars = 12000

// Clipper turns recipe pages into meals.
type Clipper struct {
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// ExtractedRecipe represents the data structured by the AI.
type ExtractedRecipe struct {
	Title          string   `json:"title"`
	Ingredients    []string `json:"ingredients"`
	PrepTimeMinutes int     `json:"prep_time_minutes"`
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipMeal fetches the URL and extracts a meal of the given type from it.
func (c *Clipper) ClipMeal(ctx context.Context, url string, mealType mealplan.MealType) (mealplan.Meal, error) {
	page, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return mealplan.Meal{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := llm.Prompt{
		System: `You are a recipe extraction expert. Extract the recipe from the page text you are given.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "ingredients": ["item 1", "item 2"],
  "prep_time_minutes": 30
}`,
		User:        "Page content:\n" + page.Text,
		Temperature: 0.2,
		MaxTokens:   1024,
		JSON:        true,
	}

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return mealplan.Meal{}, fmt.Errorf("ai extraction failed: %w", err)
	}

	extracted, err := llm.ExtractJSON[ExtractedRecipe](resp.Content)
	if err != nil {
		return mealplan.Meal{}, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}
	if strings.TrimSpace(extracted.Title) == "" {
		extracted.Title = page.Title
	}

	meal := mealplan.Meal{
		Type:          mealType,
		Name:          strings.TrimSpace(extracted.Title),
		Ingredients:   extracted.Ingredients,
		EstimatedTime: extracted.PrepTimeMinutes,
		ImageURL:      page.ImageURL,
	}
	if err := meal.Validate(); err != nil {
		return mealplan.Meal{}, fmt.Errorf("extracted recipe is unusable: %w", err)
	}
	return meal, nil
}

// Page is the useful part of a fetched recipe page.
type Page struct {
	Title    string
	ImageURL string
	Text     string
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Page{}, err
	}

	page := Page{Title: strings.TrimSpace(doc.Find("title").First().Text())}
	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		page.ImageURL = og
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		page.Title = og
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > maxContentChars {
		text = text[:maxContentChars]
	}
	page.Text = text
	return page, nil
}
