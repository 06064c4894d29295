package api

// Коды ошибок REST-протокола. Код - машиночитаемая часть ответа,
// message дублирует его человекочитаемым текстом.
const (
	// CodeInvalidArgument: тело или параметры запроса не разобрались
	// либо не прошли валидацию. HTTP 400.
	CodeInvalidArgument = "invalidArgument"

	// CodeInvalidMethod: метод не поддержан эндпоинтом. HTTP 405,
	// заголовок Allow перечисляет допустимые методы.
	CodeInvalidMethod = "invalidMethod"

	// CodeInvalidToken: заголовок Authorization отсутствует или токен
	// синтаксически неверен. HTTP 401.
	CodeInvalidToken = "invalidToken"

	// CodeUnknownToken: токен корректен по форме, но игрока с таким
	// токеном нет (не входил или уже ушел на покой). HTTP 401.
	CodeUnknownToken = "unknownToken"

	// CodeMapNotFound: карты с запрошенным id не существует. HTTP 404.
	CodeMapNotFound = "mapNotFound"

	// CodePageNotFound: файл вне корня статики или не найден. HTTP 404.
	CodePageNotFound = "pageNotFound"

	// CodeBadRequest: запрос к несуществующему /api/-пути либо к
	// /game/tick при включенном автотике. HTTP 400.
	CodeBadRequest = "badRequest"

	// CodeInternalError: невалидное состояние на стороне сервера.
	// HTTP 500.
	CodeInternalError = "internalError"
)
