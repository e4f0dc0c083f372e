package handler

import (
	"github.com/Tephenbaay/imagescribeAI/internal/domain"
	"github.com/Tephenbaay/imagescribeAI/internal/history"
)

// Template names.
const (
	templateIndex   = "index.html"
	templateResult  = "result.html"
	templateHistory = "history.html"
)

// IndexView is the data of the upload page.
type IndexView struct {
	Captions     []history.Entry
	Descriptions []history.Entry
	Error        string
	// Results is non-nil when the page is re-rendered after a rejected upload.
	Results []history.Entry
}

// ResultView is the data of the result page.
type ResultView struct {
	Filename            string
	Caption             string
	FirstDescription    string
	SecondDescription   string
	Category            string
	ImageURL            string
	CaptionAudioURL     string
	DescriptionAudioURL string
}

// HistoryView is the data of the history page.
type HistoryView struct {
	Available   bool
	Generations []domain.Generation
	Error       string
}
