package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-ldap/ldap/v3"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/internal/resputil"
	"github.com/grad-lab/capstone-backend/internal/util"
	"github.com/grad-lab/capstone-backend/pkg/config"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAuthMgr)
}

type AuthMgr struct {
	name string
	db   *gorm.DB
}

func NewAuthMgr(conf *RegisterConfig) Manager {
	return &AuthMgr{
		name: "auth",
		db:   conf.DB,
	}
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("/login", mgr.Login)
	g.POST("/refresh", mgr.Refresh)
}

func (mgr *AuthMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *AuthMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResp struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         model.UserInfo `json:"user"`
	Role         model.Role     `json:"role"`
}

// Login godoc
//
//	@Summary		Log in with account credentials
//	@Description	Verifies password (or LDAP bind when enabled) and issues tokens
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginReq	true	"credentials"
//	@Success		200		{object}	resputil.Response[TokenResp]	"tokens"
//	@Failure		401		{object}	resputil.Response[any]	"invalid credentials"
//	@Router			/v1/auth/login [post]
func (mgr *AuthMgr) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}

	var user model.User
	if err := mgr.db.WithContext(c).Where("name = ?", req.Username).First(&user).Error; err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "invalid credentials", resputil.InvalidCredentials)
		return
	}
	if user.Status != model.UserStatusActive {
		resputil.HTTPError(c, http.StatusUnauthorized, "account is not active", resputil.InvalidCredentials)
		return
	}

	if !mgr.authenticate(&user, req.Password) {
		resputil.HTTPError(c, http.StatusUnauthorized, "invalid credentials", resputil.InvalidCredentials)
		return
	}

	msg := util.JWTMessage{
		UserID:    user.ID,
		Username:  user.Name,
		Role:      user.Role,
		FacultyID: user.FacultyID,
	}
	access, refresh, err := util.GetTokenMgr().CreateTokens(&msg)
	if err != nil {
		resputil.Error(c, "failed to create tokens", resputil.NotSpecified)
		return
	}
	resputil.Success(c, TokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.Info(),
		Role:         user.Role,
	})
}

type RefreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh godoc
//
//	@Summary		Exchange a refresh token for new tokens
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RefreshReq	true	"refresh token"
//	@Success		200		{object}	resputil.Response[TokenResp]	"tokens"
//	@Failure		401		{object}	resputil.Response[any]	"invalid token"
//	@Router			/v1/auth/refresh [post]
func (mgr *AuthMgr) Refresh(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, "invalid request parameters")
		return
	}

	msg, err := util.GetTokenMgr().CheckRefreshToken(req.RefreshToken)
	if err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "invalid refresh token", resputil.TokenExpired)
		return
	}

	var user model.User
	if err := mgr.db.WithContext(c).First(&user, msg.UserID).Error; err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "user not found", resputil.TokenInvalid)
		return
	}

	// Re-read the role so a revoked account cannot refresh into old rights.
	msg.Role = user.Role
	access, refresh, err := util.GetTokenMgr().CreateTokens(&msg)
	if err != nil {
		resputil.Error(c, "failed to create tokens", resputil.NotSpecified)
		return
	}
	resputil.Success(c, TokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.Info(),
		Role:         user.Role,
	})
}

// authenticate tries the local bcrypt hash first, then an LDAP bind for
// institutional accounts without a local password.
func (mgr *AuthMgr) authenticate(user *model.User, password string) bool {
	if user.Password != nil {
		return user.CheckPassword(password)
	}
	ldapConf := config.GetConfig().LDAP
	if !ldapConf.Enable {
		return false
	}
	if err := ldapBind(user.Name, password); err != nil {
		klog.Warningf("LDAP bind failed for %s: %v", user.Name, err)
		return false
	}
	return true
}

func ldapBind(username, password string) error {
	ldapConf := config.GetConfig().LDAP

	conn, err := ldap.DialURL(ldapConf.Address)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err = conn.Bind(ldapConf.UserName, ldapConf.Password); err != nil {
		return err
	}

	searchReq := ldap.NewSearchRequest(
		ldapConf.SearchDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(username)),
		[]string{"dn"},
		nil,
	)
	result, err := conn.Search(searchReq)
	if err != nil {
		return err
	}
	if len(result.Entries) != 1 {
		return fmt.Errorf("user %s not found in directory", username)
	}

	return conn.Bind(result.Entries[0].DN, password)
}
