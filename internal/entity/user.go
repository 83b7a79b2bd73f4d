package entity

// Role is the account type assigned by the backend. Wire values are the
// Spanish names the API returns in TipoUsuario.
type Role string

const (
	RoleClient  Role = "Cliente"
	RoleAdmin   Role = "Administrador"
	RoleCourier Role = "Repartidor"
)

// Route returns the application area a user of this role lands on after
// login. Unknown roles fall back to the home route.
func (r Role) Route() string {
	switch r {
	case RoleClient:
		return "/cliente"
	case RoleAdmin:
		return "/admin"
	case RoleCourier:
		return "/repartidor"
	default:
		return "/"
	}
}

// User is the identity the backend returns on a successful login. JSON tags
// match the API's field names exactly; this is also the canonical field set
// that gets persisted with the session, nothing more.
type User struct {
	ID             string `json:"id_usuarios"`
	FirstName      string `json:"Nombre"`
	LastNameFather string `json:"ApellidoP"`
	LastNameMother string `json:"ApellidoM"`
	Email          string `json:"Correo"`
	Phone          string `json:"Telefono"`
	SecretQuestion string `json:"PreguntaSecreta"`
	SecretAnswer   string `json:"RespuestaSecreta"`
	Role           Role   `json:"TipoUsuario"`
	Status         string `json:"Estado"`
}

// Session pairs an identity with its bearer token. Both fields are set
// together or not at all.
type Session struct {
	User  User
	Token string
}
