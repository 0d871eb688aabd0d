package blog

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"blogicum/models"
)

// authorPostIDs mirrors the profile listing query for a given viewer.
func authorPostIDs(db *gorm.DB, authorID int, viewerIsOwner bool) []int {
	query := db.Model(&models.Post{}).
		Where("posts.author_id = ?", authorID).
		Order("posts.pub_date DESC")
	if !viewerIsOwner {
		query = visiblePosts(query, time.Now())
	}

	var posts []models.Post
	query.Find(&posts)

	ids := make([]int, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestProfile_UnknownUserIs404(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, nil))

	w := doGet(router, "/profile/nobody/", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfile_OwnerSeesSupersetOfStrangerView(t *testing.T) {
	db := setupTestDB()
	author := createTestUser(db, "author")
	category := createTestCategory(db, "news", true)

	visible := createTestPost(db, author.ID, &category.ID, true, yesterday())
	hidden := createTestPost(db, author.ID, &category.ID, false, yesterday())
	scheduled := createTestPost(db, author.ID, &category.ID, true, tomorrow())

	strangerView := authorPostIDs(db, author.ID, false)
	ownerView := authorPostIDs(db, author.ID, true)

	assert.Equal(t, []int{visible.ID}, strangerView)
	assert.ElementsMatch(t, []int{visible.ID, hidden.ID, scheduled.ID}, ownerView)
	for _, id := range strangerView {
		assert.Contains(t, ownerView, id)
	}
}

func TestProfile_PagesRender(t *testing.T) {
	db := setupTestDB()
	author := createTestUser(db, "author")
	category := createTestCategory(db, "news", true)
	createTestPost(db, author.ID, &category.ID, true, yesterday())

	router := setupTestRouter(NewBlogModule(db, nil))

	w := doGet(router, "/profile/author/", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doGet(router, "/profile/author/", loginAs(t, router, author.ID))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEditProfile_AnonymousIsRedirectedToLogin(t *testing.T) {
	db := setupTestDB()
	createTestUser(db, "author")

	router := setupTestRouter(NewBlogModule(db, nil))
	w := doPostForm(router, "/profile/author/edit/", url.Values{
		"email": {"new@example.com"},
	}, nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/auth/login/")
}

func TestEditProfile_MismatchedUsernameRedirectsToOwnEditPage(t *testing.T) {
	db := setupTestDB()
	createTestUser(db, "alice")
	bob := createTestUser(db, "bob")

	router := setupTestRouter(NewBlogModule(db, nil))
	cookies := loginAs(t, router, bob.ID)

	w := doPostForm(router, "/profile/alice/edit/", url.Values{
		"email": {"evil@example.com"},
	}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/bob/edit/", w.Header().Get("Location"))

	// Neither account was touched.
	var alice, reloadedBob models.User
	db.Where("username = ?", "alice").First(&alice)
	db.First(&reloadedBob, bob.ID)
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.Equal(t, "bob@example.com", reloadedBob.Email)
}

func TestEditProfile_OwnerCanUpdate(t *testing.T) {
	db := setupTestDB()
	user := createTestUser(db, "alice")

	router := setupTestRouter(NewBlogModule(db, nil))
	cookies := loginAs(t, router, user.ID)

	w := doPostForm(router, "/profile/alice/edit/", url.Values{
		"email":      {"alice@new.example.com"},
		"first_name": {"Alice"},
		"last_name":  {"Liddell"},
	}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/alice/", w.Header().Get("Location"))

	var reloaded models.User
	db.First(&reloaded, user.ID)
	assert.Equal(t, "alice@new.example.com", reloaded.Email)
	assert.Equal(t, "Alice", reloaded.FirstName)
	assert.Equal(t, "Liddell", reloaded.LastName)
}

func TestEditProfile_InvalidEmailIsValidationError(t *testing.T) {
	db := setupTestDB()
	user := createTestUser(db, "alice")

	router := setupTestRouter(NewBlogModule(db, nil))
	cookies := loginAs(t, router, user.ID)

	w := doPostForm(router, "/profile/alice/edit/", url.Values{
		"email": {"not-an-email"},
	}, cookies)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var reloaded models.User
	db.First(&reloaded, user.ID)
	assert.Equal(t, "alice@example.com", reloaded.Email)
}

func TestChangePassword_HashesBeforePersisting(t *testing.T) {
	db := setupTestDB()
	user := createTestUser(db, "alice")

	router := setupTestRouter(NewBlogModule(db, nil))
	cookies := loginAs(t, router, user.ID)

	w := doPostForm(router, "/profile/alice/edit/password/", url.Values{
		"password": {"correct-horse-battery"},
	}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/alice/", w.Header().Get("Location"))

	var reloaded models.User
	db.First(&reloaded, user.ID)
	assert.NotEqual(t, "correct-horse-battery", reloaded.PasswordHash)
	assert.NotEqual(t, "hashedpassword", reloaded.PasswordHash)
	assert.Contains(t, reloaded.PasswordHash, "$2a$")
}

func TestChangePassword_TooShortIsValidationError(t *testing.T) {
	db := setupTestDB()
	user := createTestUser(db, "alice")

	router := setupTestRouter(NewBlogModule(db, nil))
	cookies := loginAs(t, router, user.ID)

	w := doPostForm(router, "/profile/alice/edit/password/", url.Values{
		"password": {"short"},
	}, cookies)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var reloaded models.User
	db.First(&reloaded, user.ID)
	assert.Equal(t, "hashedpassword", reloaded.PasswordHash)
}
