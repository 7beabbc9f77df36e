package i18n

import "strings"

// The API speaks Spanish to its users. Handlers and services work with
// English message keys; Translate maps them to the strings the campus
// frontend expects.
var translations = map[string]string{
	"invalid request":                        "Solicitud inválida",
	"email, password and name are required":  "Email, contraseña y nombre son requeridos",
	"email already registered":               "El email ya está registrado",
	"email and password are required":        "Email y contraseña son requeridos",
	"invalid email or password":              "Email o contraseña incorrectos",
	"no token":                               "Token no proporcionado",
	"malformed token":                        "Token mal formado",
	"token expired":                          "Token expirado",
	"invalid token":                          "Token inválido",
	"user not found":                         "Usuario no encontrado",
	"message not found":                      "Mensaje no encontrado",
	"invalid user id":                        "ID de usuario inválido",
	"invalid message id":                     "ID de mensaje inválido",
	"text is required":                       "El texto del mensaje es requerido",
	"name and initials are required":         "Nombre e iniciales son requeridos",
	"incomplete data":                        "Datos incompletos",
	"no permission to edit this message":     "No tienes permiso para editar este mensaje",
	"no permission to delete this message":   "No tienes permiso para eliminar este mensaje",
	"user registered successfully":           "Usuario registrado exitosamente",
	"login successful":                       "Inicio de sesión exitoso",
	"session closed successfully":            "Sesión cerrada exitosamente",
	"message deleted successfully":           "Mensaje eliminado correctamente",
	"database initialized successfully":      "Base de datos inicializada correctamente",
	"failed to create user":                  "Error al crear usuario",
	"failed to update user":                  "Error al actualizar usuario",
	"failed to fetch users":                  "Error al obtener usuarios",
	"failed to fetch user":                   "Error al obtener usuario",
	"failed to generate token":               "Error al generar el token",
	"failed to validate user":                "Error al validar usuario",
	"failed to create message":               "Error al crear el mensaje",
	"failed to update message":               "Error al actualizar el mensaje",
	"failed to delete message":               "Error al eliminar el mensaje",
	"failed to fetch messages":               "Error al obtener mensajes",
	"failed to fetch message":                "Error al obtener el mensaje",
	"failed to save attachment":              "Error al guardar el archivo adjunto",
	"failed to update status":                "Error al actualizar el estado",
	"failed to initialize database":          "Error al inicializar la base de datos",
	"internal server error":                  "Error interno del servidor",
	"not found":                              "Recurso no encontrado",
	"request body too large":                 "El cuerpo de la solicitud es demasiado grande",
}

var prefixTranslations = map[string]string{
	"failed to hash password:":  "Error al procesar la contraseña",
	"failed to register user:":  "Error al registrar el usuario",
	"failed to sign token:":     "Error al firmar el token",
	"failed to query user:":     "Error al consultar el usuario",
}

func Translate(message string) string {
	if translated, ok := translations[message]; ok {
		return translated
	}
	for prefix, translated := range prefixTranslations {
		if strings.HasPrefix(message, prefix) {
			return translated
		}
	}
	return message
}
