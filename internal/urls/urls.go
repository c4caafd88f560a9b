package urls

// Reference URLs for ESP-AT firmware documentation.
// All URLs point to Espressif's documentation at https://docs.espressif.com/projects/esp-at/

// ATCommandSet is the index of every command the firmware understands.
const ATCommandSet = "https://docs.espressif.com/projects/esp-at/en/latest/esp32/AT_Command_Set/index.html"

// BasicCommands covers AT, AT+GMR and the echo and UART settings.
const BasicCommands = "https://docs.espressif.com/projects/esp-at/en/latest/esp32/AT_Command_Set/Basic_AT_Commands.html"

// WiFiCommands covers station mode and joining an access point (AT+CWMODE, AT+CWJAP).
const WiFiCommands = "https://docs.espressif.com/projects/esp-at/en/latest/esp32/AT_Command_Set/Wi-Fi_AT_Commands.html"

// TCPIPCommands covers the socket commands (AT+CIPSTART, AT+CIPSEND, AT+CIPCLOSE)
// and the +IPD receive framing.
const TCPIPCommands = "https://docs.espressif.com/projects/esp-at/en/latest/esp32/AT_Command_Set/TCP-IP_AT_Commands.html"
