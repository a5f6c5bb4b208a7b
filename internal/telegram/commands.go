package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meal-board/internal/app"
	"meal-board/internal/planner"
	"meal-board/internal/recipe"
)

const helpText = `🍽 *Meal Board*

/week - show the board
/recipes - numbered recipe list
/use <n> - make recipe n the active recipe
/add <name> | <ingredient> <qty> <unit>; ... - add a trial recipe
/promote <n> - move recipe n to the rotation
/place <1|2|takeaway|mum> <day> - drop a block on a day
/clear <day> - clear a day
/cancel - stop waiting for the second night
/list - grocery list
/export - unchecked groceries as text
/save - save now
/reload - discard unsaved changes

Send a recipe link to import it.`

type reply struct {
	text   string
	markup *tgbotapi.InlineKeyboardMarkup
}

func textReply(format string, args ...interface{}) reply {
	return reply{text: fmt.Sprintf(format, args...)}
}

// parseCommand splits "/place@board_bot 2 tue" into "place" and "2 tue".
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	cmd, args, _ := strings.Cut(text[1:], " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

func dispatch(ctx context.Context, ws *app.Workspace, cmd, args string) reply {
	switch cmd {
	case "start", "help":
		return reply{text: helpText}
	case "week":
		return reply{text: formatWeek(ws.View())}
	case "recipes":
		return reply{text: formatRecipes(ws.Recipes())}
	case "use":
		rec, err := recipeByNumber(ws, args)
		if err == nil {
			err = ws.SelectRecipe(rec.ID)
		}
		if err != nil {
			return reply{text: errorText("selecting recipe", err)}
		}
		return textReply("▶ Active recipe: *%s*", escape(rec.Name))
	case "add":
		name, ings, err := parseAddArgs(args)
		if err != nil {
			return reply{text: errorText("adding recipe", err)}
		}
		rec, err := ws.AddRecipe(ctx, name, ings)
		if err != nil {
			return reply{text: errorText("adding recipe", err)}
		}
		return textReply("✅ *%s* added to trial recipes with %d ingredients.\n▶ It is now the active recipe.", escape(rec.Name), len(rec.Ingredients))
	case "promote":
		rec, err := recipeByNumber(ws, args)
		if err == nil {
			err = ws.PromoteRecipe(ctx, rec.ID)
		}
		if err != nil {
			return reply{text: errorText("promoting recipe", err)}
		}
		return textReply("⭐ *%s* is now in the rotation.", escape(rec.Name))
	case "place":
		fields := strings.Fields(args)
		if len(fields) != 2 {
			return reply{text: "Usage: /place <1|2|takeaway|mum> <day>"}
		}
		block, err := parseBlock(fields[0])
		if err != nil {
			return reply{text: errorText("placing block", err)}
		}
		day, err := planner.ParseDay(fields[1])
		if err != nil {
			return reply{text: errorText("placing block", err)}
		}
		if err := ws.PlaceBlock(block, day); err != nil {
			return reply{text: errorText("placing block", err)}
		}
		return reply{text: formatWeek(ws.View())}
	case "clear":
		day, err := planner.ParseDay(args)
		if err == nil {
			err = ws.ClearDay(day)
		}
		if err != nil {
			return reply{text: errorText("clearing day", err)}
		}
		return reply{text: formatWeek(ws.View())}
	case "cancel":
		ws.CancelPending()
		return reply{text: "👌 Placement cancelled."}
	case "list":
		return groceryReply(ws.Groceries())
	case "export":
		text := ws.Export()
		if text == "" {
			return reply{text: "🛒 Nothing left to buy."}
		}
		return textReply("🛒 *Still to buy*\n```\n%s\n```", strings.ReplaceAll(text, "\r\n", "\n"))
	case "save":
		if err := ws.Save(ctx); err != nil {
			return reply{text: errorText("saving board", err)}
		}
		return reply{text: "💾 Board saved."}
	case "reload":
		if err := ws.Reload(ctx); err != nil {
			return reply{text: errorText("reloading board", err)}
		}
		return reply{text: formatWeek(ws.View())}
	case "":
		return reply{text: "Send /help to see what I can do, or send a recipe link to import it."}
	default:
		return textReply("🤔 Unknown command /%s. Send /help.", escape(cmd))
	}
}

func importRecipe(ctx context.Context, ws *app.Workspace, url string) (string, error) {
	rec, err := ws.ImportRecipe(ctx, url)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n", escape(rec.Name)))
	for _, ing := range rec.Ingredients {
		sb.WriteString(fmt.Sprintf("• %s %s %s\n", escape(ing.Name), strconv.FormatFloat(ing.Quantity, 'f', -1, 64), escape(ing.Unit)))
	}
	sb.WriteString("\n▶ It is now the active recipe.")
	return sb.String(), nil
}

func recipeByNumber(ws *app.Workspace, arg string) (recipe.Recipe, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("%w: %q is not a recipe number", app.ErrInvalidInput, arg)
	}
	ordered := ws.Recipes().Ordered()
	if n < 1 || n > len(ordered) {
		return recipe.Recipe{}, fmt.Errorf("recipe #%d: %w", n, recipe.ErrUnknownRecipe)
	}
	return ordered[n-1], nil
}

func parseBlock(s string) (planner.BlockType, error) {
	switch strings.ToLower(s) {
	case "1", "one", "onenight":
		return planner.BlockOneNight, nil
	case "2", "two", "twonight":
		return planner.BlockTwoNight, nil
	case "takeaway", "t":
		return planner.BlockTakeaway, nil
	case "mum", "m":
		return planner.BlockMum, nil
	}
	return "", fmt.Errorf("%w: %q", planner.ErrUnknownBlock, s)
}

// parseAddArgs reads "Chili | beans 2 cans; minced beef 500 g". The last two
// words of each ingredient are its quantity and unit.
func parseAddArgs(args string) (string, []recipe.Ingredient, error) {
	name, rest, _ := strings.Cut(args, "|")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("%w: usage /add <name> | <ingredient> <qty> <unit>; ...", app.ErrInvalidInput)
	}

	var ings []recipe.Ingredient
	for _, part := range strings.Split(rest, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return "", nil, fmt.Errorf("%w: ingredient %q needs a name, quantity and unit", app.ErrInvalidInput, strings.TrimSpace(part))
		}
		qty, err := strconv.ParseFloat(fields[len(fields)-2], 64)
		if err != nil {
			return "", nil, fmt.Errorf("%w: ingredient %q has no numeric quantity", app.ErrInvalidInput, strings.TrimSpace(part))
		}
		ings = append(ings, recipe.Ingredient{
			Name:     strings.Join(fields[:len(fields)-2], " "),
			Quantity: qty,
			Unit:     fields[len(fields)-1],
		})
	}
	return name, ings, nil
}

func formatWeek(v app.BoardView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *This Week* (%d/%d nights planned)\n\n", v.PlannedNights, v.TotalNights))

	for _, d := range v.Days {
		sb.WriteString(fmt.Sprintf("*%s*: ", d.Label))
		switch {
		case d.Meal == nil:
			sb.WriteString("-")
		case d.Continuation:
			sb.WriteString("↪ " + mealTitle(d.Meal))
		default:
			sb.WriteString(fmt.Sprintf("%s _(%s)_", mealTitle(d.Meal), d.Meal.Label))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if v.ActiveRecipe != nil {
		sb.WriteString(fmt.Sprintf("▶ Active recipe: *%s*\n", escape(v.ActiveRecipe.Name)))
	} else {
		sb.WriteString("▶ No active recipe. Add one with /add.\n")
	}
	if v.Placement.Phase == planner.PhaseAwaitingSecondNight.String() {
		sb.WriteString("⏳ Pick the second night with /place 2 <day>, or /cancel.\n")
	}
	return sb.String()
}

func mealTitle(m *app.MealView) string {
	if m.RecipeName != "" {
		return escape(m.RecipeName)
	}
	return m.Label
}

func formatRecipes(l app.RecipeLists) string {
	if len(l.Rotation)+len(l.Trial) == 0 {
		return "📖 No recipes yet. Add one with /add or send a recipe link."
	}

	var sb strings.Builder
	n := 0
	section := func(title string, recipes []recipe.Recipe) {
		sb.WriteString(title + "\n")
		if len(recipes) == 0 {
			sb.WriteString("_None_\n")
		}
		for _, r := range recipes {
			n++
			marker := ""
			if r.ID == l.ActiveRecipeID {
				marker = " ▶"
			}
			sb.WriteString(fmt.Sprintf("%d. %s%s\n", n, escape(r.Name), marker))
		}
	}
	section("⭐ *Rotation*", l.Rotation)
	sb.WriteString("\n")
	section("🧪 *Trial*", l.Trial)
	return sb.String()
}

func groceryReply(g app.GroceryView) reply {
	if len(g.Lines) == 0 {
		return reply{text: "🛒 *Shopping List*\n\nNothing planned yet."}
	}

	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(g.Lines))
	for i, line := range g.Lines {
		mark := "⬜"
		if line.Checked {
			mark = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", mark, escape(line.Text)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark+" "+line.Text, "toggle|"+strconv.Itoa(i)),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return reply{text: sb.String(), markup: &markup}
}

// errorText turns a workspace error into a chat reply. Mistakes the user can
// fix get a hint; everything else is shown verbatim.
func errorText(action string, err error) string {
	switch {
	case errors.Is(err, planner.ErrNoActiveRecipe):
		return "⚠️ Pick a recipe first with /use <n>."
	case errors.Is(err, planner.ErrDayOutOfRange):
		return "⚠️ Unknown day. Use a weekday like tue or a number 0-6."
	case errors.Is(err, planner.ErrUnknownBlock):
		return "⚠️ Unknown block. Use 1, 2, takeaway or mum."
	case errors.Is(err, recipe.ErrUnknownRecipe):
		return "⚠️ No such recipe. See /recipes."
	case errors.Is(err, app.ErrClipperDisabled):
		return "⚠️ Recipe import is not configured."
	}
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", action, safeErr)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
