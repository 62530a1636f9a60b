package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/academia/internal/course/domain"
)

func (s *Server) CreateCourse(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	course, err := s.courseSvc.CreateCourse(c.Request.Context(), domain.CreateCourseRequest{
		Title: req.Title,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

func (s *Server) AddLesson(c *gin.Context) {
	var req struct {
		Title    string `json:"title"`
		Position int    `json:"position"`
		ActorID  string `json:"actor_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lesson, err := s.courseSvc.AddLesson(c.Request.Context(), domain.AddLessonRequest{
		CourseID: c.Param("id"),
		Title:    req.Title,
		Position: req.Position,
		ActorID:  req.ActorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lesson": lesson})
}

func (s *Server) PublishCourse(c *gin.Context) {
	var req struct {
		ActorID string `json:"actor_id"`
	}
	// An empty body is fine: publish needs no payload.
	_ = c.ShouldBindJSON(&req)

	course, err := s.courseSvc.PublishCourse(c.Request.Context(), domain.PublishCourseRequest{
		CourseID: c.Param("id"),
		ActorID:  req.ActorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

func (s *Server) Enroll(c *gin.Context) {
	var req struct {
		MemberID string `json:"member_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	enrollment, err := s.courseSvc.Enroll(c.Request.Context(), domain.EnrollRequest{
		CourseID: c.Param("id"),
		MemberID: req.MemberID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
}

func (s *Server) CompleteLesson(c *gin.Context) {
	var req struct {
		MemberID string `json:"member_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.courseSvc.CompleteLesson(c.Request.Context(), domain.CompleteLessonRequest{
		LessonID: c.Param("id"),
		MemberID: req.MemberID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"completion": resp})
}
