package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/internal/resputil"
	"github.com/grad-lab/capstone-backend/internal/util"
	"github.com/grad-lab/capstone-backend/pkg/apperror"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewUserMgr)
}

type UserMgr struct {
	name string
	db   *gorm.DB
}

func NewUserMgr(conf *RegisterConfig) Manager {
	return &UserMgr{
		name: "users",
		db:   conf.DB,
	}
}

func (mgr *UserMgr) GetName() string { return mgr.name }

func (mgr *UserMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *UserMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/me", mgr.GetProfile)
	g.GET("/faculty", mgr.ListFaculty)
}

func (mgr *UserMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListUsers)
	g.POST("", mgr.CreateUser)
	g.PUT("/:id", mgr.UpdateUser)
	g.DELETE("/:id", mgr.DeleteUser)
}

type UserIDReq struct {
	ID uint `uri:"id" binding:"required"`
}

type UserResp struct {
	ID        uint                `json:"id"`
	Username  string              `json:"username"`
	Nickname  *string             `json:"nickname"`
	Role      model.Role          `json:"role"`
	Status    model.UserStatus    `json:"status"`
	FacultyID uint                `json:"facultyID"`
	Attrs     model.UserAttribute `json:"attributes"`
	CreatedAt time.Time           `json:"createdAt"`
}

func toUserResp(u *model.User) UserResp {
	return UserResp{
		ID:        u.ID,
		Username:  u.Name,
		Nickname:  u.Nickname,
		Role:      u.Role,
		Status:    u.Status,
		FacultyID: u.FacultyID,
		Attrs:     u.Attributes.Data(),
		CreatedAt: u.CreatedAt,
	}
}

// GetProfile godoc
//
//	@Summary		The caller's own account
//	@Tags			User
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[UserResp]	"account"
//	@Router			/v1/users/me [get]
func (mgr *UserMgr) GetProfile(c *gin.Context) {
	token := util.GetToken(c)

	var user model.User
	if err := mgr.db.WithContext(c).First(&user, token.UserID).Error; err != nil {
		resputil.WrapServiceError(c, apperror.NotFound("user %d not found", token.UserID))
		return
	}
	resputil.Success(c, toUserResp(&user))
}

// ListFaculty godoc
//
//	@Summary		Active faculty accounts, for advisor and committee pickers
//	@Tags			User
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]UserResp]	"faculty"
//	@Router			/v1/users/faculty [get]
func (mgr *UserMgr) ListFaculty(c *gin.Context) {
	var users []model.User
	err := mgr.db.WithContext(c).
		Where("role >= ? AND status = ?", model.RoleFaculty, model.UserStatusActive).
		Order("name ASC").
		Find(&users).Error
	if err != nil {
		resputil.Error(c, "failed to list faculty", resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(users, func(u model.User, _ int) UserResp {
		return toUserResp(&u)
	}))
}

// ListUsers godoc
//
//	@Summary		List every account (admin)
//	@Tags			User
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]UserResp]	"accounts"
//	@Router			/v1/admin/users [get]
func (mgr *UserMgr) ListUsers(c *gin.Context) {
	var users []model.User
	if err := mgr.db.WithContext(c).Order("id ASC").Find(&users).Error; err != nil {
		resputil.Error(c, "failed to list users", resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(users, func(u model.User, _ int) UserResp {
		return toUserResp(&u)
	}))
}

type CreateUserReq struct {
	Username  string              `json:"username" binding:"required"`
	Nickname  *string             `json:"nickname"`
	Password  *string             `json:"password"`
	Role      model.Role          `json:"role" binding:"required"`
	FacultyID uint                `json:"facultyID"`
	Attrs     model.UserAttribute `json:"attributes"`
}

// CreateUser godoc
//
//	@Summary		Create an account (admin)
//	@Description	Accounts without a password authenticate through LDAP
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			body	body		CreateUserReq	true	"account"
//	@Success		200		{object}	resputil.Response[UserResp]	"created account"
//	@Failure		409		{object}	resputil.Response[any]	"username taken"
//	@Router			/v1/admin/users [post]
func (mgr *UserMgr) CreateUser(c *gin.Context) {
	var req CreateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}

	user := model.User{
		Name:       req.Username,
		Nickname:   req.Nickname,
		Role:       req.Role,
		Status:     model.UserStatusActive,
		FacultyID:  req.FacultyID,
		Attributes: datatypes.NewJSONType(req.Attrs),
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			resputil.Error(c, "failed to hash password", resputil.NotSpecified)
			return
		}
	}
	if err := mgr.db.WithContext(c).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			resputil.WrapServiceError(c, apperror.Conflict("username %s is taken", req.Username))
			return
		}
		klog.Errorf("failed to create user %s: %v", req.Username, err)
		resputil.Error(c, "failed to create user", resputil.NotSpecified)
		return
	}
	resputil.Success(c, toUserResp(&user))
}

type UpdateUserReq struct {
	Nickname  *string              `json:"nickname"`
	Password  *string              `json:"password"`
	Role      *model.Role          `json:"role"`
	Status    *model.UserStatus    `json:"status"`
	FacultyID *uint                `json:"facultyID"`
	Attrs     *model.UserAttribute `json:"attributes"`
}

// UpdateUser godoc
//
//	@Summary		Update an account (admin)
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id		path		int				true	"user id"
//	@Param			body	body		UpdateUserReq	true	"fields to change"
//	@Success		200		{object}	resputil.Response[UserResp]	"updated account"
//	@Failure		404		{object}	resputil.Response[any]	"not found"
//	@Router			/v1/admin/users/{id} [put]
func (mgr *UserMgr) UpdateUser(c *gin.Context) {
	var uri UserIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	var req UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}

	var user model.User
	if err := mgr.db.WithContext(c).First(&user, uri.ID).Error; err != nil {
		resputil.WrapServiceError(c, apperror.NotFound("user %d not found", uri.ID))
		return
	}

	if req.Nickname != nil {
		user.Nickname = req.Nickname
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			resputil.Error(c, "failed to hash password", resputil.NotSpecified)
			return
		}
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.FacultyID != nil {
		user.FacultyID = *req.FacultyID
	}
	if req.Attrs != nil {
		user.Attributes = datatypes.NewJSONType(*req.Attrs)
	}

	if err := mgr.db.WithContext(c).Save(&user).Error; err != nil {
		klog.Errorf("failed to update user %d: %v", uri.ID, err)
		resputil.Error(c, "failed to update user", resputil.NotSpecified)
		return
	}
	resputil.Success(c, toUserResp(&user))
}

// DeleteUser godoc
//
//	@Summary		Delete an account (admin)
//	@Tags			User
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path		int	true	"user id"
//	@Success		200	{object}	resputil.Response[string]	"deleted"
//	@Router			/v1/admin/users/{id} [delete]
func (mgr *UserMgr) DeleteUser(c *gin.Context) {
	var uri UserIDReq
	if err := c.ShouldBindUri(&uri); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}
	if err := mgr.db.WithContext(c).Delete(&model.User{}, uri.ID).Error; err != nil {
		resputil.Error(c, "failed to delete user", resputil.NotSpecified)
		return
	}
	resputil.Success(c, "user deleted")
}
