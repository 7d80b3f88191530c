package render

import (
	"fmt"
	"strings"

	"github.com/futig/docqa/internal/state"
)

const (
	MsgWelcome = `👋 Hi! Send me a document and I will summarize it.
Then ask any question about it in plain text.

/help shows what else I can do.`

	MsgHelp = `Commands:
/start - introduction
/help - this help
/status - what I know about your document
/reset - forget the document and start over
/export [markdown|html|pdf|docx] - download the summary and the last answer

Send a document to summarize it. Any other text is a question about it.`

	MsgSummarizing      = "📄 Got %s, summarizing..."
	MsgSummaryReady     = "📝 Summary of %s:\n\n%s"
	MsgAskHint          = "Ask me anything about it."
	MsgAnswer           = "💬 %s"
	MsgBusySummarizing  = "⏳ Still summarizing your document, please wait."
	MsgBusyAsking       = "⏳ Still answering your previous question, please wait."
	MsgDocumentReplaced = "The document was replaced, that result was discarded."
	MsgSessionReset     = "🧹 Session cleared. Send a new document."
	MsgNothingToExport  = "Nothing to export yet. Send a document first."
	MsgUnknownFormat    = "Unknown format. Use one of: markdown, html, pdf, docx."
	MsgUnsupportedFile  = "❌ I can only read %s files."
	MsgFileTooLarge     = "❌ The file is too large (max %d MB)."
	MsgUnreadableFile   = "❌ I could not read this file. Please send a valid document."
	MsgUnknownCommand   = "❌ Unknown command. Use /help"
	MsgTooManyRequests  = "⚠️ Too many requests. Please wait a little."
	MsgSlowDown         = "⚠️ Request limit reached. Wait about 30 seconds before trying again."
	MsgRateLimited      = "🛑 You are sending requests too often. Please wait a minute."

	ErrGeneric = "❌ Something went wrong. Please try again or use /reset"
)

// Status describes the session to the user.
func Status(snap state.Snapshot) string {
	if snap.Document == nil {
		return "No document yet. Send one to get started."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📄 %s (%d KB)\n", snap.Document.Name, (snap.Document.Size()+1023)/1024)

	switch {
	case snap.IsSummarizing:
		b.WriteString("⏳ Summarizing...\n")
	case snap.HasSummary():
		fmt.Fprintf(&b, "✅ Summarized (id %s)\n", snap.DocumentID())
	default:
		b.WriteString("Not summarized yet\n")
	}

	if snap.Question != "" {
		fmt.Fprintf(&b, "❓ %s\n", snap.Question)
	}
	switch {
	case snap.IsAsking:
		b.WriteString("⏳ Answering...\n")
	case snap.Answer != "":
		fmt.Fprintf(&b, "💬 %s\n", snap.Answer)
	}
	if snap.ErrorMessage != "" {
		fmt.Fprintf(&b, "⚠️ %s\n", snap.ErrorMessage)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Split cuts text into chunks of at most limit bytes, preferring line breaks.
func Split(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			// do not split a UTF-8 sequence
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" || len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
