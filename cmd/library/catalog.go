package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-backend/pkg/models"
)

// Catalog management: books and categories. The loan engine never mutates
// these; a book's quantity set here is the authoritative total stock.

func pageParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err = strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}
	return page, size
}

func bookJSON(book *models.Book, available int) gin.H {
	return gin.H{
		"id":             book.ID,
		"title":          book.Title,
		"author":         book.Author,
		"isbn":           book.Isbn,
		"quantity":       book.Quantity,
		"categoryId":     book.CategoryID,
		"availableCount": available,
	}
}

func listBooks(c *gin.Context) {
	page, size := pageParams(c)

	var totalElements int64
	if err := db.Model(&models.Book{}).Count(&totalElements).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var books []models.Book
	offset := (page - 1) * size
	if err := db.Offset(offset).Limit(size).Find(&books).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, len(books))
	for i, book := range books {
		available, err := ledger.AvailableCount(book.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		items[i] = bookJSON(&book, available)
	}
	c.JSON(http.StatusOK, gin.H{
		"page":          page,
		"pageSize":      size,
		"totalElements": totalElements,
		"items":         items,
	})
}

func getBook(c *gin.Context) {
	bookID, ok := paramID(c, "bookId")
	if !ok {
		return
	}

	book, err := ledger.GetBook(bookID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}
	available, err := ledger.AvailableCount(bookID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bookJSON(book, available))
}

type bookRequest struct {
	Title      string `json:"title" binding:"required"`
	Author     string `json:"author"`
	Isbn       string `json:"isbn"`
	Quantity   int    `json:"quantity" binding:"min=0"`
	CategoryID *uint  `json:"category_id"`
}

func createBook(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	var request bookRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	book := models.Book{
		Title:      request.Title,
		Author:     request.Author,
		Isbn:       request.Isbn,
		Quantity:   request.Quantity,
		CategoryID: request.CategoryID,
	}
	if err := db.Create(&book).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create book"})
		return
	}
	c.JSON(http.StatusCreated, bookJSON(&book, book.Quantity))
}

func updateBook(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	bookID, ok := paramID(c, "bookId")
	if !ok {
		return
	}

	book, err := ledger.GetBook(bookID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	var request bookRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	book.Title = request.Title
	book.Author = request.Author
	book.Isbn = request.Isbn
	book.Quantity = request.Quantity
	book.CategoryID = request.CategoryID
	if err := db.Save(book).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update book"})
		return
	}

	available, err := ledger.AvailableCount(book.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bookJSON(book, available))
}

func deleteBook(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	bookID, ok := paramID(c, "bookId")
	if !ok {
		return
	}

	if _, err := ledger.GetBook(bookID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	open, err := ledger.ActiveLoanCount(bookID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if open > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "book has open loans"})
		return
	}

	if err := db.Delete(&models.Book{}, bookID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete book"})
		return
	}
	c.Data(http.StatusNoContent, "application/json", nil)
}

func categoryJSON(category *models.Category) gin.H {
	return gin.H{
		"id":          category.ID,
		"name":        category.Name,
		"description": category.Description,
	}
}

func listCategories(c *gin.Context) {
	var categories []models.Category
	if err := db.Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	items := make([]gin.H, len(categories))
	for i := range categories {
		items[i] = categoryJSON(&categories[i])
	}
	c.JSON(http.StatusOK, items)
}

func getCategory(c *gin.Context) {
	categoryID, ok := paramID(c, "categoryId")
	if !ok {
		return
	}

	var category models.Category
	if err := db.First(&category, categoryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	c.JSON(http.StatusOK, categoryJSON(&category))
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func createCategory(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	var request categoryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	var existing models.Category
	if err := db.Where("name = ?", request.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category with this name already exists"})
		return
	}

	category := models.Category{Name: request.Name, Description: request.Description}
	if err := db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, categoryJSON(&category))
}

func updateCategory(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	categoryID, ok := paramID(c, "categoryId")
	if !ok {
		return
	}

	var category models.Category
	if err := db.First(&category, categoryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	var request categoryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	category.Name = request.Name
	category.Description = request.Description
	if err := db.Save(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update category"})
		return
	}
	c.JSON(http.StatusOK, categoryJSON(&category))
}

func deleteCategory(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	categoryID, ok := paramID(c, "categoryId")
	if !ok {
		return
	}

	var category models.Category
	if err := db.First(&category, categoryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	if err := db.Delete(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete category"})
		return
	}
	c.Data(http.StatusNoContent, "application/json", nil)
}
