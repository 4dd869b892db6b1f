package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reasonableperson/etrial-manager/api/models"
	"github.com/reasonableperson/etrial-manager/tool"
)

// Reloader tells open pages to refetch their view.
type Reloader interface {
	Reload(reason string)
}

// DocumentController serves the backend upload and action endpoints.
type DocumentController struct {
	store  *models.DocumentStore
	reload Reloader
}

func NewDocumentController(store *models.DocumentStore, reload Reloader) *DocumentController {
	return &DocumentController{store: store, reload: reload}
}

// HandleUpload stores the raw request body.
// POST /upload?filename=<name> and POST /documents/add?filename=<name>
func (ctrl *DocumentController) HandleUpload(c *gin.Context) {
	title := c.Query("filename")
	if title == "" {
		tool.ReplyError(c, http.StatusBadRequest, "Missing required query parameter: filename")
		return
	}
	defer func() {
		if err := c.Request.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close request body: %v", err)
		}
	}()
	hash, size, err := ctrl.store.Add(c.Request.Context(), title, c.Request.Body)
	if err != nil {
		tool.ReplyError(c, http.StatusInternalServerError, "Failed to store upload: "+err.Error())
		return
	}
	tool.DefaultLogger.Infof("Received %d bytes for %q -> %s", size, title, hash)
	c.String(http.StatusOK, "Thanks.")
}

// HandleList lists stored documents.
// GET /api/documents
func (ctrl *DocumentController) HandleList(c *gin.Context) {
	docs, err := ctrl.store.List()
	if err != nil {
		tool.ReplyError(c, http.StatusInternalServerError, err.Error())
		return
	}
	grants, err := ctrl.store.SFTPGrants()
	if err != nil {
		tool.ReplyError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"documents":  docs,
		"sftpGrants": grants,
	}))
}

// POST /identify/:hash/:arg
func (ctrl *DocumentController) HandleIdentify(c *gin.Context) {
	ctrl.apply(c, "identify", ctrl.store.Identify(c.Param("hash"), c.Param("arg")))
}

// POST /publish/:hash/:group
func (ctrl *DocumentController) HandlePublish(c *gin.Context) {
	ctrl.apply(c, "publish", ctrl.store.Publish(c.Param("hash"), c.Param("group")))
}

// POST /recall/:hash/:group
func (ctrl *DocumentController) HandleRecall(c *gin.Context) {
	ctrl.apply(c, "recall", ctrl.store.Recall(c.Param("hash"), c.Param("group")))
}

// POST /delete/:hash
func (ctrl *DocumentController) HandleDelete(c *gin.Context) {
	ctrl.apply(c, "delete", ctrl.store.Delete(c.Param("hash")))
}

// POST /settings/sftp/grant/:name
func (ctrl *DocumentController) HandleGrant(c *gin.Context) {
	ctrl.apply(c, "grant", ctrl.store.GrantSFTP(c.Param("name")))
}

// HandleDocumentMatrix dispatches a click on a documents table cell: the row
// is a document hash and the column a group or identifier.
// POST /documents/:action/:row/:col
func (ctrl *DocumentController) HandleDocumentMatrix(c *gin.Context) {
	hash, col := c.Param("row"), c.Param("col")
	action := c.Param("action")
	var err error
	switch action {
	case "publish":
		err = ctrl.store.Publish(hash, col)
	case "recall":
		err = ctrl.store.Recall(hash, col)
	case "identify":
		err = ctrl.store.Identify(hash, col)
	case "delete":
		err = ctrl.store.Delete(hash)
	default:
		tool.ReplyError(c, http.StatusBadRequest, "Unknown document action: "+action)
		return
	}
	ctrl.apply(c, action, err)
}

// HandleUserMatrix dispatches a click on a users table cell: the row is a
// user name.
// POST /users/:action/:row/:col
func (ctrl *DocumentController) HandleUserMatrix(c *gin.Context) {
	name := c.Param("row")
	action := c.Param("action")
	var err error
	switch action {
	case "grant":
		err = ctrl.store.GrantSFTP(name)
	case "revoke":
		err = ctrl.store.RevokeSFTP(name)
	default:
		tool.ReplyError(c, http.StatusBadRequest, "Unknown user action: "+action)
		return
	}
	ctrl.apply(c, action, err)
}

func (ctrl *DocumentController) apply(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, models.ErrDocumentNotFound):
		tool.ReplyError(c, http.StatusNotFound, err.Error())
	case err != nil:
		tool.ReplyError(c, http.StatusInternalServerError, action+" failed: "+err.Error())
	default:
		tool.DefaultLogger.Infof("Action %s on %s applied", action, c.Request.URL.Path)
		if ctrl.reload != nil {
			ctrl.reload.Reload(action)
		}
		c.Status(http.StatusOK)
	}
}
