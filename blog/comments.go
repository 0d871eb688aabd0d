package blog

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"blogicum/auth"
	"blogicum/forms"
	"blogicum/models"
)

// addComment creates a comment on a publicly visible post. Hidden and
// scheduled posts reject comments with a 404 even for their author.
func (b *BlogModule) addComment(c *gin.Context) {
	postID, ok := intParam(c, "postID")
	if !ok {
		b.notFound(c, "Post not found")
		return
	}

	post, err := getVisiblePost(b.db, postID, time.Now())
	if err != nil {
		b.notFound(c, "Post not found")
		return
	}

	comment, errs := forms.CommentForm(map[string]string{"text": c.PostForm("text")}, nil)
	if errs != nil {
		c.HTML(http.StatusBadRequest, "comment_form.html", gin.H{
			"post":   post,
			"errors": errs,
		})
		return
	}

	uid, _ := auth.SessionUserID(c)
	comment.AuthorID = uid
	comment.PostID = post.ID

	if err := b.db.Omit(clause.Associations).Create(comment).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Could not save the comment",
		})
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", post.ID))
}

// requireCommentOwner resolves the comment within the given post and applies
// the owner-only redirect policy.
func (b *BlogModule) requireCommentOwner(c *gin.Context) *models.Comment {
	postID, ok := intParam(c, "postID")
	if !ok {
		b.notFound(c, "Comment not found")
		return nil
	}
	commentID, ok := intParam(c, "commentID")
	if !ok {
		b.notFound(c, "Comment not found")
		return nil
	}

	var comment models.Comment
	if err := b.db.Where("id = ? AND post_id = ?", commentID, postID).
		First(&comment).Error; err != nil {
		b.notFound(c, "Comment not found")
		return nil
	}

	uid, _ := auth.SessionUserID(c)
	if comment.AuthorID != uid {
		c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", comment.PostID))
		c.Abort()
		return nil
	}

	return &comment
}

func (b *BlogModule) editCommentPage(c *gin.Context) {
	comment := b.requireCommentOwner(c)
	if comment == nil {
		return
	}

	c.HTML(http.StatusOK, "comment_form.html", gin.H{
		"comment": comment,
	})
}

func (b *BlogModule) updateComment(c *gin.Context) {
	comment := b.requireCommentOwner(c)
	if comment == nil {
		return
	}

	patched, errs := forms.CommentForm(map[string]string{"text": c.PostForm("text")}, comment)
	if errs != nil {
		c.HTML(http.StatusBadRequest, "comment_form.html", gin.H{
			"comment": comment,
			"errors":  errs,
		})
		return
	}

	if err := b.db.Omit(clause.Associations).Save(patched).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Could not save the comment",
		})
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", comment.PostID))
}

// deleteCommentPage and deleteComment answer 404 on any mismatch of post,
// comment or author, never leaking the comment's existence.
func (b *BlogModule) deleteCommentPage(c *gin.Context) {
	comment, ok := b.getOwnComment(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "comment_confirm_delete.html", gin.H{
		"comment": comment,
	})
}

func (b *BlogModule) deleteComment(c *gin.Context) {
	comment, ok := b.getOwnComment(c)
	if !ok {
		return
	}

	if err := b.db.Delete(comment).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Could not delete the comment",
		})
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", comment.PostID))
}

// getOwnComment fetches the comment only when post id AND author both match,
// otherwise 404.
func (b *BlogModule) getOwnComment(c *gin.Context) (*models.Comment, bool) {
	postID, ok := intParam(c, "postID")
	if !ok {
		b.notFound(c, "Comment not found")
		return nil, false
	}
	commentID, ok := intParam(c, "commentID")
	if !ok {
		b.notFound(c, "Comment not found")
		return nil, false
	}

	uid, _ := auth.SessionUserID(c)

	var comment models.Comment
	if err := b.db.Where("id = ? AND post_id = ? AND author_id = ?", commentID, postID, uid).
		First(&comment).Error; err != nil {
		b.notFound(c, "Comment not found")
		return nil, false
	}

	return &comment, true
}
