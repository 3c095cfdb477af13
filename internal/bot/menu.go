package bot

// Callback data values for the inline menu buttons.
const (
	callbackMenu  = "back_to_menu"
	callbackInfo  = "kb_info"
	callbackAsk   = "ask_question"
	callbackClear = "clear_history"
)

const welcomeText = `👋 <b>Welcome!</b>

I'm your association's AI assistant.

<b>How I can help:</b>
✓ Association information &amp; programs
✓ Events, meetings &amp; important dates
✓ Membership &amp; resources

💡 <i>Choose an option below to get started</i>`

const menuText = `📋 <b>Main Menu</b>

What would you like to explore today?`

const infoText = `📚 <b>Knowledge Base</b>

Ask me anything about the association!

<b>📖 My knowledge sources:</b>
✓ Official documents
✓ Live website data

💬 <i>Type your question below and I'll answer directly</i>`

const askText = `💬 <b>Ask Me Anything!</b>

Events, membership, leadership, resources: just type your question below.`

const historyClearedText = `✅ <b>Chat history cleared!</b>

Ready for a fresh start? Ask me anything.`

// mainMenuKeyboard builds the top-level inline menu. mainBotURL adds a
// link button when configured.
func mainMenuKeyboard(mainBotURL string) *InlineKeyboardMarkup {
	rows := [][]InlineKeyboardButton{
		{{Text: "🎓 Association Info", CallbackData: callbackInfo}},
		{{Text: "💬 Ask a Question", CallbackData: callbackAsk}},
		{{Text: "🔄 Clear History", CallbackData: callbackClear}},
	}
	if mainBotURL != "" {
		rows = append(rows, []InlineKeyboardButton{{Text: "🏠 Return to Main Bot", URL: mainBotURL}})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

// backKeyboard builds the navigation keyboard attached to answers.
func backKeyboard(mainBotURL string) *InlineKeyboardMarkup {
	rows := [][]InlineKeyboardButton{
		{{Text: "⬅️ Back to Menu", CallbackData: callbackMenu}},
	}
	if mainBotURL != "" {
		rows = append(rows, []InlineKeyboardButton{{Text: "🏠 Return to Main Bot", URL: mainBotURL}})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}
