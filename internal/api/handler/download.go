package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DownloadFilename is the attachment name of /download_text.
const DownloadFilename = "captions_and_descriptions.txt"

// DownloadText returns the caption and description posted by the result
// page as a text attachment.
func DownloadText(c *gin.Context) {
	body := FormatDownload(
		c.PostForm("filename"),
		c.PostForm("caption"),
		c.PostForm("first_description"),
		c.PostForm("second_description"),
	)

	c.Header("Content-Disposition", "attachment; filename="+DownloadFilename)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

// FormatDownload renders the downloadable text.
func FormatDownload(filename, caption, first, second string) string {
	return fmt.Sprintf("Filename: %s\n\nPredicted Caption: %s\n\nPredicted Description:\n%s\n%s\n",
		filename, caption, first, second)
}
