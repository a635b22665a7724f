package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Raikerian/go-lumina-kitchen/internal/kitchen"
)

// bookRows is how many recipes the book panel lists.
const bookRows = 8

const kitchenHelp = "recipe <ingredients> · fridge <photo> · search <query> · open <n> · quit"

// KitchenService is the part of kitchen.Service the kitchen screen uses.
type KitchenService interface {
	CreateFromIngredients(ctx context.Context, ingredients []string) (*kitchen.Recipe, error)
	CreateFromFridgePhoto(ctx context.Context, image []byte, mimeType string) (*kitchen.Recipe, []string, error)
	Search(ctx context.Context, query string) (*kitchen.SearchResult, error)
	Recipes() []*kitchen.Recipe
	Recipe(id string) (*kitchen.Recipe, bool)
}

type recipeMsg struct {
	recipe *kitchen.Recipe
	found  []string
	err    error
}

type searchMsg struct {
	query  string
	result *kitchen.SearchResult
	err    error
}

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	headStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
)

// KitchenModel is an interactive recipe studio. Every recipe it creates goes
// into the service's book, which stays listed for the whole run, and
// repeated searches are answered from the service's cache.
type KitchenModel struct {
	ctx    context.Context
	svc    KitchenService
	input  string
	busy   string
	result string
	err    error
	width  int
}

// NewKitchenModel creates the kitchen screen. ctx bounds every request.
func NewKitchenModel(ctx context.Context, svc KitchenService) KitchenModel {
	return KitchenModel{ctx: ctx, svc: svc}
}

// Init implements tea.Model.
func (m KitchenModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m KitchenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case recipeMsg:
		m.busy = ""
		m.err = msg.err
		m.result = ""
		if len(msg.found) > 0 {
			m.result = "Found: " + strings.Join(msg.found, ", ") + "\n\n"
		}
		if msg.err == nil {
			m.result += renderRecipe(msg.recipe)
		}
	case searchMsg:
		m.busy = ""
		m.err = msg.err
		m.result = ""
		if msg.err == nil {
			m.result = renderSearch(msg.query, msg.result)
		}
	}
	return m, nil
}

func (m KitchenModel) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// submit runs the typed command. Input is ignored while a request is running.
func (m KitchenModel) submit() (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	verb, arg, _ := strings.Cut(strings.TrimSpace(m.input), " ")
	arg = strings.TrimSpace(arg)
	m.input = ""
	m.err = nil

	ctx, svc := m.ctx, m.svc
	switch strings.ToLower(verb) {
	case "":
		return m, nil
	case "quit", "exit":
		return m, tea.Quit
	case "recipe":
		m.busy = "Cooking up a recipe..."
		return m, func() tea.Msg {
			r, err := svc.CreateFromIngredients(ctx, kitchen.ParseIngredients(arg))
			return recipeMsg{recipe: r, err: err}
		}
	case "fridge":
		photo, mimeType, err := kitchen.ReadPhoto(arg)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.busy = "Looking inside your fridge..."
		return m, func() tea.Msg {
			r, found, err := svc.CreateFromFridgePhoto(ctx, photo, mimeType)
			return recipeMsg{recipe: r, found: found, err: err}
		}
	case "search":
		m.busy = "Searching..."
		return m, func() tea.Msg {
			res, err := svc.Search(ctx, arg)
			return searchMsg{query: arg, result: res, err: err}
		}
	case "open":
		r, err := m.open(arg)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.result = renderRecipe(r)
		return m, nil
	default:
		m.err = fmt.Errorf("unknown command %q", verb)
		return m, nil
	}
}

// open finds a book entry by its position in the list or by ID.
func (m KitchenModel) open(arg string) (*kitchen.Recipe, error) {
	id := arg
	if n, err := strconv.Atoi(arg); err == nil {
		recipes := m.svc.Recipes()
		if n < 1 || n > len(recipes) {
			return nil, fmt.Errorf("no recipe #%d in the book", n)
		}
		id = recipes[n-1].ID
	}
	r, ok := m.svc.Recipe(id)
	if !ok {
		return nil, errors.New("recipe not found")
	}
	return r, nil
}

// Input returns the text typed so far.
func (m KitchenModel) Input() string {
	return m.input
}

// Busy reports whether a request is running.
func (m KitchenModel) Busy() bool {
	return m.busy != ""
}

// View implements tea.Model.
func (m KitchenModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Lumina Kitchen · Recipe Studio"))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Recipe book"))
	b.WriteString("\n")
	recipes := m.svc.Recipes()
	if len(recipes) == 0 {
		b.WriteString(faintStyle.Render("  Nothing cooked yet."))
		b.WriteString("\n")
	}
	for i, r := range recipes {
		if i == bookRows {
			b.WriteString(faintStyle.Render(fmt.Sprintf("  ... and %d more", len(recipes)-bookRows)))
			b.WriteString("\n")
			break
		}
		fmt.Fprintf(&b, "  %d. %s %s\n", i+1, r.Title, faintStyle.Render("("+r.Difficulty+")"))
	}
	b.WriteString("\n")

	switch {
	case m.busy != "":
		b.WriteString(faintStyle.Render(m.busy))
		b.WriteString("\n\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	case m.result != "":
		b.WriteString(m.wrap(m.result))
		b.WriteString("\n\n")
	}

	b.WriteString(promptStyle.Render("> "))
	b.WriteString(m.input)
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(kitchenHelp))
	b.WriteString("\n")

	return b.String()
}

func (m KitchenModel) wrap(text string) string {
	if m.width <= 4 {
		return text
	}
	return lipgloss.NewStyle().Width(m.width - 2).Render(text)
}

func renderRecipe(r *kitchen.Recipe) string {
	var b strings.Builder

	b.WriteString(headStyle.Render(r.Title))
	b.WriteString("\n")
	if r.Description != "" {
		b.WriteString(r.Description + "\n")
	}
	fmt.Fprintf(&b, "Prep %s · Cook %s · Serves %d · %s\n\n", r.PrepTime, r.CookTime, r.Servings, r.Difficulty)
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "  • %s\n", strings.TrimSpace(ing.Amount+" "+ing.Name))
	}
	b.WriteString("\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSearch(query string, res *kitchen.SearchResult) string {
	var b strings.Builder

	b.WriteString(headStyle.Render(query))
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(res.Text))
	for _, src := range res.Sources {
		title := src.Title
		if title == "" {
			title = src.URI
		}
		fmt.Fprintf(&b, "\n  - %s <%s>", title, src.URI)
	}
	return b.String()
}

// RunKitchen shows the kitchen screen until the user quits.
func RunKitchen(ctx context.Context, svc KitchenService, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(NewKitchenModel(ctx, svc), append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
